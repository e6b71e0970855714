package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/buddykit/cmd/buddyctl/logger"
	"github.com/joshuapare/buddykit/heap/trace"
)

var (
	stressArena    string
	stressWorkers  int
	stressParallel int
)

func init() {
	cmd := newStressCmd()
	addWorkloadFlags(cmd)
	cmd.Flags().StringVar(&stressArena, "arena", "1MiB", "Arena size per worker")
	cmd.Flags().IntVar(&stressWorkers, "workers", 8, "Number of independent arenas")
	cmd.Flags().IntVar(&stressParallel, "parallel", 0, "Workers run at once (0 = GOMAXPROCS)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run random workloads on many arenas at once",
		Long: `The stress command runs one random workload per worker, each against its
own arena and allocator, seeded with --seed plus the worker index. Every
arena is checked for invariant violations once its workload completes.
The first failing worker cancels the rest.

Example:
  buddyctl stress
  buddyctl stress --workers 32 --ops 100000 --arena 4MiB
  buddyctl stress --parallel 2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context())
		},
	}
}

type stressResult struct {
	Worker      int          `json:"worker"`
	Seed        int64        `json:"seed"`
	Result      trace.Result `json:"result"`
	FreeBytes   uint64       `json:"free_bytes"`
	LargestFree uint64       `json:"largest_free"`
}

func runStress(ctx context.Context) error {
	if stressWorkers <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", stressWorkers)
	}
	limit := stressParallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]stressResult, stressWorkers)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range stressWorkers {
		g.Go(func() error {
			r, err := stressWorker(ctx, i)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(results)
	}
	if quiet {
		return nil
	}
	return printStress(results)
}

func stressWorker(ctx context.Context, i int) (stressResult, error) {
	seed := simSeed + int64(i)
	ops := generateOps(seed)

	a, ar, err := newAllocator(stressArena)
	if err != nil {
		return stressResult{}, err
	}
	defer ar.Close()

	res, err := trace.Replay(ctx, a, trace.NewSliceSource(ops))
	if err != nil {
		return stressResult{}, err
	}
	if err := checkInvariants(a); err != nil {
		return stressResult{}, err
	}
	logger.Debug("stress worker done", "worker", i, "seed", seed, "ops", res.Ops)
	return stressResult{
		Worker:      i,
		Seed:        seed,
		Result:      res,
		FreeBytes:   a.FreeBytes(),
		LargestFree: a.LargestFree(),
	}, nil
}

func printStress(results []stressResult) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Worker", "Seed", "Ops", "Failed", "Live", "Peak", "Free", "Largest"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	var ops, failures int
	for _, r := range results {
		table.Append([]string{
			strconv.Itoa(r.Worker),
			strconv.FormatInt(r.Seed, 10),
			humanize.Comma(int64(r.Result.Ops)),
			humanize.Comma(int64(r.Result.Failures)),
			strconv.Itoa(r.Result.Live),
			humanize.IBytes(r.Result.PeakBytesInUse),
			humanize.IBytes(r.FreeBytes),
			humanize.IBytes(r.LargestFree),
		})
		ops += r.Result.Ops
		failures += r.Result.Failures
	}
	table.Render()

	printInfo("\n%d workers, %s ops, %s failed allocations, invariants ok\n",
		len(results), humanize.Comma(int64(ops)), humanize.Comma(int64(failures)))
	return nil
}
