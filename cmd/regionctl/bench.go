package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-region/internal/region"
)

var (
	benchSize       uint32
	benchIterations int
	benchMaxAlloc   uint32
	benchKeep       bool
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().Uint32Var(&benchSize, "size", 1<<20, "Region length in bytes to exercise")
	cmd.Flags().IntVar(&benchIterations, "iterations", 10000, "Number of reserve/free cycles to run")
	cmd.Flags().Uint32Var(&benchMaxAlloc, "max-alloc", 4096, "Upper bound on a single allocation's payload size")
	cmd.Flags().BoolVar(&benchKeep, "keep", false, "Write the final region to a scratch file in the temp directory")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Exercise the allocator with random reserve/resize/free traffic",
		Long: `The bench command formats a scratch region in memory, then drives it
through a mix of random reservations, resizes, and frees, reporting how many
reserves, resizes, and frees succeeded and how many requests failed for
lack of space (fragmentation or exhaustion).

Nothing is written to disk unless --keep is given; then the final region is
written to a file in the system temp directory, named with a random UUID so
concurrent bench runs never collide, for inspection with 'regionctl dump'.

Example:
  regionctl bench --size 1048576 --iterations 50000
  regionctl bench --keep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
	return cmd
}

type benchReport struct {
	Path       string `json:"path"`
	RegionSize uint32 `json:"region_size"`
	Iterations int    `json:"iterations"`
	Reserves   int    `json:"reserves"`
	Resizes    int    `json:"resizes"`
	Frees      int    `json:"frees"`
	OutOfSpace int    `json:"out_of_space"`
	Elapsed    string `json:"elapsed"`
}

func runBench() error {
	scratchName := fmt.Sprintf("regionctl-bench-%s.bin", uuid.New().String())
	path := os.TempDir() + string(os.PathSeparator) + scratchName

	buf := make([]byte, benchSize)
	if err := region.Format(buf, 0); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	printVerbose("scratch region: %s (%d bytes)\n", path, benchSize)

	rng := rand.New(rand.NewSource(1))
	var live []region.Atom
	report := benchReport{Path: path, RegionSize: benchSize, Iterations: benchIterations}

	start := time.Now()

	for i := 0; i < benchIterations; i++ {
		switch {
		case len(live) == 0 || rng.Intn(3) != 0:
			n := uint32(rng.Intn(int(benchMaxAlloc) + 1))
			a, err := region.Reserve(buf, n, region.KindAllocation)
			if err != nil {
				report.OutOfSpace++
				continue
			}
			report.Reserves++
			live = append(live, a)

		case rng.Intn(2) == 0:
			idx := rng.Intn(len(live))
			n := uint32(rng.Intn(int(benchMaxAlloc) + 1))
			resized, err := region.ReserveResize(buf, live[idx], n)
			if err != nil {
				report.OutOfSpace++
				continue
			}
			report.Resizes++
			live[idx] = resized

		default:
			idx := rng.Intn(len(live))
			if _, err := region.Free(buf, live[idx]); err != nil {
				return fmt.Errorf("free during bench: %w", err)
			}
			report.Frees++
			live = append(live[:idx], live[idx+1:]...)
		}
	}

	for _, a := range live {
		if _, err := region.Free(buf, a); err != nil {
			return fmt.Errorf("final free during bench: %w", err)
		}
		report.Frees++
	}

	report.Elapsed = time.Since(start).String()

	if err := region.Validate(buf); err != nil {
		return fmt.Errorf("bench left region in an invalid state: %w", err)
	}

	if benchKeep {
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return fmt.Errorf("writing scratch file %s: %w", path, err)
		}
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("region:     %d bytes\n", report.RegionSize)
	printInfo("iterations: %d\n", report.Iterations)
	printInfo("reserves:   %d\n", report.Reserves)
	printInfo("resizes:    %d\n", report.Resizes)
	printInfo("frees:      %d\n", report.Frees)
	printInfo("exhausted:  %d\n", report.OutOfSpace)
	printInfo("elapsed:    %s\n", report.Elapsed)
	if benchKeep {
		printInfo("scratch:    %s\n", report.Path)
	}
	return nil
}
