package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/buddykit/cmd/buddyctl/logger"
	"github.com/joshuapare/buddykit/heap"
	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/trace"
)

var watchArena string

func init() {
	cmd := newWatchCmd()
	addWorkloadFlags(cmd)
	cmd.Flags().StringVar(&watchArena, "arena", "1MiB", "Arena size")
	rootCmd.AddCommand(cmd)
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [trace]",
		Short: "Step through a workload interactively",
		Long: `The watch command opens a terminal view of the arena and applies the
workload one operation at a time. Without a trace argument a random
undrained workload is generated.

Keys:
  n, space   apply one operation
  f          apply one hundred operations
  r          reset the arena and rewind
  q          quit

Example:
  buddyctl watch
  buddyctl watch run.jsonl.zst --arena 256KiB`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args)
		},
	}
}

func runWatch(args []string) error {
	ops, err := loadOps(args)
	if err != nil {
		return err
	}
	a, ar, err := newAllocator(watchArena)
	if err != nil {
		return err
	}
	defer ar.Close()

	m := newWatchModel(a, ar, ops)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	if wm, ok := final.(watchModel); ok && wm.err != nil {
		return wm.err
	}
	return nil
}

type watchKeyMap struct {
	Step  key.Binding
	Fast  key.Binding
	Reset key.Binding
	Quit  key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Fast, k.Reset, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var watchKeys = watchKeyMap{
	Step: key.NewBinding(
		key.WithKeys("n", " "),
		key.WithHelp("n/space", "step"),
	),
	Fast: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "step 100"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

const fastSteps = 100

var (
	watchTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	watchStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	watchErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF4B4B"))
)

// watchModel is the bubbletea model behind the watch command.
type watchModel struct {
	a      *alloc.Allocator
	ar     *heap.Arena
	player *trace.Player
	ops    []trace.Op
	pos    int
	last   string
	err    error
	width  int
	help   help.Model
}

func newWatchModel(a *alloc.Allocator, ar *heap.Arena, ops []trace.Op) watchModel {
	return watchModel{
		a:      a,
		ar:     ar,
		player: trace.NewPlayer(a),
		ops:    ops,
		width:  64,
		help:   help.New(),
	}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-2, 16)
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, watchKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, watchKeys.Step):
			m.step(1)
		case key.Matches(msg, watchKeys.Fast):
			m.step(fastSteps)
		case key.Matches(msg, watchKeys.Reset):
			m.reset()
		}
	}
	return m, nil
}

// step applies up to n operations. It stops at the end of the trace or on
// the first error.
func (m *watchModel) step(n int) {
	for range n {
		if m.err != nil || m.pos >= len(m.ops) {
			return
		}
		op := m.ops[m.pos]
		if err := m.player.Apply(op); err != nil {
			m.err = err
			logger.Error("watch step failed", "pos", m.pos, "error", err)
			return
		}
		m.pos++
		m.last = describeOp(op)
	}
	if m.err == nil && m.pos == len(m.ops) {
		m.err = checkInvariants(m.a)
	}
}

func (m *watchModel) reset() {
	if err := m.a.Init(m.ar.Bytes()); err != nil {
		m.err = err
		return
	}
	m.player = trace.NewPlayer(m.a)
	m.pos = 0
	m.last = ""
	m.err = nil
}

func describeOp(op trace.Op) string {
	switch {
	case op.Op == trace.OpFree:
		return fmt.Sprintf("free #%d", op.ID)
	case op.Align > 0:
		return fmt.Sprintf("alloc #%d %d bytes aligned %d", op.ID, op.Size, op.Align)
	default:
		return fmt.Sprintf("alloc #%d %d bytes", op.ID, op.Size)
	}
}

const watchRows = 16

func (m watchModel) View() string {
	var sb strings.Builder
	sb.WriteString(watchTitleStyle.Render("buddyctl watch"))
	sb.WriteByte('\n')

	out, err := renderMap(m.a, m.width, watchRows, newMapStyles(!noColor))
	if err != nil {
		out = err.Error()
	}
	sb.WriteString(out)
	sb.WriteString("\n\n")

	res := m.player.Result()
	status := fmt.Sprintf("op %d/%d  live %d  failed %d", m.pos, len(m.ops), res.Live, res.Failures)
	if m.last != "" {
		status += "  last: " + m.last
	}
	sb.WriteString(watchStatusStyle.Render(status))
	sb.WriteByte('\n')
	sb.WriteString(mapSummary(m.a.Snapshot()))
	sb.WriteByte('\n')

	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, alloc.ErrCorrupt) {
			msg = "heap corrupted: " + msg
		}
		sb.WriteString(watchErrorStyle.Render(msg))
		sb.WriteByte('\n')
	} else if m.pos == len(m.ops) {
		sb.WriteString(watchStatusStyle.Render("end of trace, invariants ok"))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.help.View(watchKeys))
	return sb.String()
}
