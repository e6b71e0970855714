package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/printer"
	"github.com/joshuapare/buddykit/heap/trace"
)

var (
	mapArena string
	mapWidth int
	mapRows  int
)

func init() {
	cmd := newMapCmd()
	addWorkloadFlags(cmd)
	cmd.Flags().StringVar(&mapArena, "arena", "1MiB", "Arena size")
	cmd.Flags().IntVar(&mapWidth, "width", 64, "Cells per row")
	cmd.Flags().IntVar(&mapRows, "rows", 16, "Number of rows")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map [trace]",
		Short: "Draw arena occupancy",
		Long: `The map command draws which parts of the arena are in use after running a
workload. Without a trace argument a random workload is generated and left
undrained, so live allocations remain visible.

Each cell covers an equal slice of the arena:
  █ fully allocated   ▒ mostly allocated   ░ partly allocated   · free

Example:
  buddyctl map
  buddyctl map --ops 500 --seed 3 --width 96
  buddyctl map run.jsonl.zst --no-color`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
}

// loadOps reads ops from the trace in args, or generates an undrained
// workload when args is empty.
func loadOps(args []string) ([]trace.Op, error) {
	if len(args) == 0 {
		opts := workloadOptions()
		opts.Drain = false
		return trace.Generate(rand.New(rand.NewSource(simSeed)), simOps, opts), nil
	}
	r, closeTrace, err := openTrace(args[0])
	if err != nil {
		return nil, err
	}
	defer closeTrace()
	return trace.ReadAll(r)
}

func runMap(args []string) error {
	ops, err := loadOps(args)
	if err != nil {
		return err
	}
	a, ar, err := newAllocator(mapArena)
	if err != nil {
		return err
	}
	defer ar.Close()

	p := trace.NewPlayer(a)
	for _, op := range ops {
		if err := p.Apply(op); err != nil {
			return fmt.Errorf("replay failed: %w", err)
		}
	}
	if err := checkInvariants(a); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(runOutput{Result: p.Result(), Snapshot: a.Snapshot()})
	}
	if quiet {
		return nil
	}
	out, err := renderMap(a, mapWidth, mapRows, newMapStyles(!noColor))
	if err != nil {
		return err
	}
	printInfo("%s\n%s\n", out, mapSummary(a.Snapshot()))
	return nil
}

type mapStyles struct {
	full, most, part, free lipgloss.Style
}

func newMapStyles(color bool) mapStyles {
	if !color {
		return mapStyles{}
	}
	return mapStyles{
		full: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4B4B")),
		most: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		part: lipgloss.NewStyle().Foreground(lipgloss.Color("#00D7FF")),
		free: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

// cellUsage returns the allocated fraction of each of cells equal slices of
// the arena.
func cellUsage(a *alloc.Allocator, cells int) ([]float64, uint64, error) {
	capacity := a.Capacity()
	span := max((capacity+uint64(cells)-1)/uint64(cells), 1)
	used := make([]uint64, cells)
	err := a.Walk(func(b alloc.Block) bool {
		if b.Free {
			return true
		}
		for off := b.Offset; off < b.End(); {
			c := off / span
			end := min((c+1)*span, b.End())
			used[c] += end - off
			off = end
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	frac := make([]float64, cells)
	for i, u := range used {
		lo := uint64(i) * span
		if lo >= capacity {
			break
		}
		frac[i] = float64(u) / float64(min(span, capacity-lo))
	}
	return frac, span, nil
}

// renderMap draws the arena as rows of cells.
func renderMap(a *alloc.Allocator, width, rows int, st mapStyles) (string, error) {
	if width <= 0 || rows <= 0 {
		return "", fmt.Errorf("map size must be positive, got %dx%d", width, rows)
	}
	frac, span, err := cellUsage(a, width*rows)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s arena, %s per cell\n", humanize.IBytes(a.Capacity()), humanize.IBytes(span))
	for r := range rows {
		for _, f := range frac[r*width : (r+1)*width] {
			switch {
			case f >= 1:
				sb.WriteString(st.full.Render("█"))
			case f >= 0.5:
				sb.WriteString(st.most.Render("▒"))
			case f > 0:
				sb.WriteString(st.part.Render("░"))
			default:
				sb.WriteString(st.free.Render("·"))
			}
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func mapSummary(s alloc.Snapshot) string {
	return fmt.Sprintf("in use %s, free %s, largest free %s, fragmentation %.1f%%",
		humanize.IBytes(s.Stats.BytesInUse),
		humanize.IBytes(s.FreeBytes),
		humanize.IBytes(s.LargestFree),
		printer.Fragmentation(s)*100)
}
