package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/buddykit/cmd/buddyctl/logger"
	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/printer"
	"github.com/joshuapare/buddykit/heap/trace"
)

var (
	simArena        string
	simOps          int
	simSeed         int64
	simMaxSize      int
	simFreeRatio    float64
	simAlignedRatio float64
	simNoDrain      bool
	simRecord       string
	simRelease      bool
)

func init() {
	cmd := newSimulateCmd()
	addWorkloadFlags(cmd)
	cmd.Flags().StringVar(&simArena, "arena", "1MiB", "Arena size")
	cmd.Flags().StringVar(&simRecord, "record", "", "Write the generated trace to this file (.zst/.lz4 compress)")
	cmd.Flags().BoolVar(&simRelease, "release", false, "Return free pages to the OS after the run")
	rootCmd.AddCommand(cmd)
}

// addWorkloadFlags registers the flags shared by commands that generate traces.
func addWorkloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&simOps, "ops", 10000, "Number of generated operations")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&simMaxSize, "max-size", trace.DefaultGenerateOptions.MaxSize, "Largest request size")
	cmd.Flags().Float64Var(&simFreeRatio, "free-ratio", trace.DefaultGenerateOptions.FreeRatio,
		"Chance that a step frees a live allocation")
	cmd.Flags().Float64Var(&simAlignedRatio, "aligned-ratio", trace.DefaultGenerateOptions.AlignedRatio,
		"Chance that an allocation asks for extra alignment")
	cmd.Flags().BoolVar(&simNoDrain, "no-drain", false, "Leave allocations live at the end")
}

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run a random workload",
		Long: `The simulate command generates a random allocation workload from a seed,
replays it against a fresh arena, verifies all allocator invariants and
reports the resulting statistics.

Example:
  buddyctl simulate
  buddyctl simulate --ops 50000 --seed 7 --arena 4MiB
  buddyctl simulate --record run.jsonl.zst
  buddyctl simulate --no-drain --release --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context())
		},
	}
}

func workloadOptions() trace.GenerateOptions {
	opts := trace.DefaultGenerateOptions
	opts.MaxSize = simMaxSize
	opts.FreeRatio = simFreeRatio
	opts.AlignedRatio = simAlignedRatio
	opts.Drain = !simNoDrain
	return opts
}

func generateOps(seed int64) []trace.Op {
	return trace.Generate(rand.New(rand.NewSource(seed)), simOps, workloadOptions())
}

type runOutput struct {
	Result   trace.Result   `json:"result"`
	Snapshot alloc.Snapshot `json:"snapshot"`
	Released int            `json:"released,omitempty"`
}

func runSimulate(ctx context.Context) error {
	ops := generateOps(simSeed)
	printVerbose("Generated %d ops (seed %d)\n", len(ops), simSeed)

	if simRecord != "" {
		if err := writeTrace(simRecord, ops); err != nil {
			return err
		}
		printVerbose("Recorded trace: %s\n", simRecord)
	}

	a, ar, err := newAllocator(simArena)
	if err != nil {
		return err
	}
	defer ar.Close()

	res, err := trace.Replay(ctx, a, trace.NewSliceSource(ops))
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	if err := checkInvariants(a); err != nil {
		return err
	}
	logger.Info("simulate done", "ops", res.Ops, "failures", res.Failures, "peak", res.PeakBytesInUse)

	out := runOutput{Result: res}
	if simRelease {
		n, err := a.Release()
		if err != nil {
			return fmt.Errorf("release failed: %w", err)
		}
		out.Released = n
	}
	out.Snapshot = a.Snapshot()
	return report(out)
}

// report prints a run result in the selected format.
func report(out runOutput) error {
	if jsonOut {
		return printJSON(out)
	}
	if quiet {
		return nil
	}
	if err := printer.Replay(os.Stdout, out.Result); err != nil {
		return err
	}
	if out.Released > 0 {
		printInfo("Released to OS: %s\n", humanize.IBytes(uint64(out.Released)))
	}
	printInfo("\n")
	if err := printer.Stats(os.Stdout, out.Snapshot); err != nil {
		return err
	}
	if verbose {
		printInfo("\n")
		return printer.FreeLists(os.Stdout, out.Snapshot)
	}
	return nil
}

func writeTrace(path string, ops []trace.Op) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}
	if err := trace.WriteAll(f, trace.CodecFromPath(path), ops); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return f.Close()
}
