package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-region/internal/region"
)

var (
	formatSize     uint32
	formatReserved uint32
)

func init() {
	cmd := newFormatCmd()
	cmd.Flags().Uint32Var(&formatSize, "size", 1024, "Region length in bytes (must be a multiple of 16, >= 32)")
	cmd.Flags().Uint32Var(&formatReserved, "reserved", 0, "Payload bytes to reserve in the data atom")
	rootCmd.AddCommand(cmd)
}

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <file>",
		Short: "Create a new, empty, formatted region file",
		Long: `The format command writes a new region file of the requested size,
formatted as [data | free | end], with an optional number of reserved
payload bytes in the data atom.

Example:
  regionctl format region.bin --size 4096
  regionctl format region.bin --size 4096 --reserved 27`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(args)
		},
	}
	return cmd
}

func runFormat(args []string) error {
	path := args[0]

	buf := make([]byte, formatSize)
	if err := region.Format(buf, formatReserved); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	printVerbose("formatted %d bytes (%d reserved) into %s\n", formatSize, formatReserved, path)

	if jsonOut {
		return printJSON(map[string]any{
			"path":     path,
			"size":     formatSize,
			"reserved": formatReserved,
		})
	}

	printInfo("formatted %s (%d bytes)\n", path, formatSize)
	return nil
}
