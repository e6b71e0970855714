package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/buddykit/cmd/buddyctl/logger"
	"github.com/joshuapare/buddykit/heap"
	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/printer"
	"github.com/joshuapare/buddykit/heap/verify"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configName string
	policyName string
	logEnabled bool
	logDir     string
	logDebug   bool

	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "buddyctl",
	Short: "Exercise and inspect the buddy allocator",
	Long: `buddyctl drives the buddy allocator with synthetic or recorded
workloads, checks its invariants after every run, and reports how the arena
was used. Traces can be recorded, compressed, replayed and stepped through
interactively.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if logDebug {
			level = slog.LevelDebug
		}
		c, err := logger.Init(logger.Options{
			Enabled: logEnabled || logDir != "",
			Dir:     logDir,
			Level:   level,
			Command: cmd.Name(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		closeLog = c
		logger.Debug("command start", "args", args)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog == nil {
			return nil
		}
		err := closeLog()
		closeLog = nil
		return err
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().
		StringVar(&configName, "config", "cacheline", "Allocator configuration (cacheline, compact)")
	rootCmd.PersistentFlags().
		StringVar(&policyName, "policy", "", "Rounding policy override (header, clamp)")
	rootCmd.PersistentFlags().BoolVar(&logEnabled, "log", false, "Write a JSON log to ~/.buddyctl/logs")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write a JSON log to this directory")
	rootCmd.PersistentFlags().BoolVar(&logDebug, "log-debug", false, "Include debug records in the log")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	return printer.JSON(os.Stdout, v)
}

// resolveConfig returns the allocator configuration selected by flags.
func resolveConfig() (alloc.Config, error) {
	cfg, ok := alloc.ConfigByName(configName)
	if !ok {
		return alloc.Config{}, fmt.Errorf("unknown config %q (want cacheline or compact)", configName)
	}
	switch strings.ToLower(policyName) {
	case "":
	case "header", "header-then-round":
		cfg.Policy = alloc.HeaderThenRound
	case "clamp", "clamp-then-round":
		cfg.Policy = alloc.ClampThenRound
	default:
		return alloc.Config{}, fmt.Errorf("unknown policy %q (want header or clamp)", policyName)
	}
	return cfg, nil
}

// parseSize accepts sizes like "4096", "64KiB" or "1MB".
func parseSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int(n), nil
}

// newAllocator maps an arena of the given size and builds an allocator
// over it. The caller must close the arena.
func newAllocator(size string) (*alloc.Allocator, *heap.Arena, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, nil, err
	}
	n, err := parseSize(size)
	if err != nil {
		return nil, nil, err
	}
	ar, err := heap.NewArena(n)
	if err != nil {
		return nil, nil, err
	}
	log := logger.ForArena(cfg.Name, n, ar.Mapped())
	a, err := alloc.New(ar.Bytes(), &cfg, alloc.WithLogger(log), alloc.WithPurger(ar))
	if err != nil {
		ar.Close()
		return nil, nil, err
	}
	printVerbose("Arena: %s (%s), config %s\n", humanize.IBytes(uint64(n)), mappedLabel(ar), cfg.Name)
	log.Info("arena ready")
	return a, ar, nil
}

func mappedLabel(ar *heap.Arena) string {
	if ar.Mapped() {
		return "mmap"
	}
	return "heap"
}

// checkInvariants runs every allocator check and logs the outcome.
func checkInvariants(a *alloc.Allocator) error {
	if err := verify.AllInvariants(a); err != nil {
		logger.Error("invariant check failed", "error", err)
		return fmt.Errorf("invariant check failed: %w", err)
	}
	printVerbose("Invariants: ok\n")
	return nil
}
