package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-region/internal/region"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a region file's atom layout invariants",
		Long: `The validate command checks a region file against the seven layout
invariants: first-atom-is-data, last-atom-is-end, previous-field
consistency, total length, length alignment, no-adjacent-free, and the end
sentinel's previous field.

Example:
  regionctl validate region.bin
  regionctl validate region.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
	return cmd
}

func runValidate(args []string) error {
	path := args[0]

	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	printVerbose("validating %s (%d bytes)\n", path, len(buf))

	validateErr := region.Validate(buf)

	if jsonOut {
		result := map[string]any{"path": path, "valid": validateErr == nil}
		if validateErr != nil {
			result["error"] = validateErr.Error()
		}
		if err := printJSON(result); err != nil {
			return err
		}
		if validateErr != nil {
			os.Exit(1)
		}
		return nil
	}

	if validateErr != nil {
		printInfo("INVALID: %v\n", validateErr)
		os.Exit(1)
	}

	printInfo("%s: valid\n", path)
	return nil
}
