package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/buddykit/cmd/buddyctl/logger"
	"github.com/joshuapare/buddykit/heap/trace"
)

var (
	replayArena string
	replayCodec string
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().StringVar(&replayArena, "arena", "1MiB", "Arena size")
	cmd.Flags().StringVar(&replayCodec, "codec", "auto", "Trace compression (auto, none, zstd, lz4)")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay a recorded trace",
		Long: `The replay command runs a recorded allocation trace against a fresh
arena and verifies all allocator invariants afterwards. The codec is taken
from the file extension unless --codec is given.

Example:
  buddyctl replay run.jsonl
  buddyctl replay run.jsonl.zst --arena 8MiB
  buddyctl replay capture.bin --codec lz4 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args[0])
		},
	}
}

func traceCodec(path string) (trace.Codec, error) {
	if replayCodec == "" || replayCodec == "auto" {
		return trace.CodecFromPath(path), nil
	}
	return trace.ParseCodec(replayCodec)
}

// openTrace returns a reader for path. The returned func closes both the
// reader and the file.
func openTrace(path string) (*trace.Reader, func(), error) {
	codec, err := traceCodec(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace: %w", err)
	}
	r, err := trace.NewReader(f, codec)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	printVerbose("Trace: %s (%s)\n", path, codec)
	return r, func() {
		r.Close()
		f.Close()
	}, nil
}

func runReplay(ctx context.Context, path string) error {
	r, closeTrace, err := openTrace(path)
	if err != nil {
		return err
	}
	defer closeTrace()

	a, ar, err := newAllocator(replayArena)
	if err != nil {
		return err
	}
	defer ar.Close()

	res, err := trace.Replay(ctx, a, r)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	if err := checkInvariants(a); err != nil {
		return err
	}
	logger.Info("replay done", "trace", path, "ops", res.Ops, "failures", res.Failures)
	return report(runOutput{Result: res, Snapshot: a.Snapshot()})
}
