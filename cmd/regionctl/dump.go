package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-region/internal/binary"
	"github.com/robert-malhotra/go-region/internal/region"
)

var dumpChecksum bool

func init() {
	cmd := newDumpCmd()
	cmd.Flags().BoolVar(&dumpChecksum, "checksum", false, "Print a lookup3 checksum for each atom's payload")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Human-readable dump of a region's atom chain",
		Long: `The dump command validates a region file's atom chain, then walks it
and prints, for each atom, its offset, kind, length, and previous field.

Example:
  regionctl dump region.bin
  regionctl dump region.bin --checksum
  regionctl dump region.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

type atomRecord struct {
	Offset   uint32 `json:"offset"`
	Kind     string `json:"kind"`
	Length   uint32 `json:"length"`
	Previous uint32 `json:"previous"`
	Checksum uint32 `json:"checksum,omitempty"`
}

func runDump(args []string) error {
	path := args[0]

	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := region.Validate(buf); err != nil {
		return fmt.Errorf("%s: %w (run 'regionctl validate' for details)", path, err)
	}

	var records []atomRecord
	for a := range region.Walk(buf) {
		rec := atomRecord{
			Offset:   a.Offset(),
			Kind:     a.Kind().String(),
			Length:   a.Length(),
			Previous: a.Previous(),
		}
		if dumpChecksum {
			rec.Checksum = binary.Lookup3Checksum(a.Payload())
		}
		records = append(records, rec)
	}

	if jsonOut {
		return printJSON(records)
	}

	printInfo("%-10s %-12s %-10s %-10s", "offset", "kind", "length", "previous")
	if dumpChecksum {
		printInfo(" %s", "checksum")
	}
	printInfo("\n")

	for _, rec := range records {
		printInfo("0x%-8x %-12s %-10d %-10d", rec.Offset, rec.Kind, rec.Length, rec.Previous)
		if dumpChecksum {
			printInfo(" 0x%08x", rec.Checksum)
		}
		printInfo("\n")
	}

	return nil
}
