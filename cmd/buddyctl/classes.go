package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/printer"
)

var classesCapacity string

func init() {
	cmd := newClassesCmd()
	cmd.Flags().StringVar(&classesCapacity, "capacity", "1MiB", "Arena capacity to list classes for")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Show the block class table",
		Long: `The classes command lists every block class available for an arena of
the given capacity, with the block size and the largest request it serves.

Example:
  buddyctl classes
  buddyctl classes --config compact --capacity 64KiB
  buddyctl classes --policy clamp --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

type classesOutput struct {
	Config  alloc.Config      `json:"config"`
	Classes []alloc.ClassInfo `json:"classes"`
}

func runClasses() error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	capacity, err := parseSize(classesCapacity)
	if err != nil {
		return err
	}
	infos := cfg.Classes(uint64(capacity))

	if jsonOut {
		return printJSON(classesOutput{Config: cfg, Classes: infos})
	}
	if quiet {
		return nil
	}
	return printer.Classes(os.Stdout, cfg, infos)
}
