package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/buddykit/heap/trace"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sendKey(t *testing.T, m watchModel, msg tea.Msg) (watchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(watchModel)
	require.True(t, ok)
	return wm, cmd
}

func TestWatchModel_Step(t *testing.T) {
	resetFlags()
	a, ar := newTestAllocator(t, 4096)
	ops := []trace.Op{
		trace.Alloc(1, 100),
		trace.AllocAligned(2, 100, 256),
		trace.Free(1),
		trace.Free(2),
	}
	m := newWatchModel(a, ar, ops)
	require.Nil(t, m.Init())

	m, cmd := sendKey(t, m, runeKey("n"))
	require.Nil(t, cmd)
	require.Equal(t, 1, m.pos)
	require.Equal(t, "alloc #1 100 bytes", m.last)
	require.Equal(t, 1, m.player.Result().Live)

	m, _ = sendKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, 2, m.pos)
	require.Equal(t, "alloc #2 100 bytes aligned 256", m.last)

	m, _ = sendKey(t, m, runeKey("f"))
	require.Equal(t, 4, m.pos)
	require.Equal(t, "free #2", m.last)
	require.NoError(t, m.err)
	require.Contains(t, m.View(), "op 4/4")
	require.Contains(t, m.View(), "end of trace, invariants ok")

	// Stepping past the end is a no-op.
	m, _ = sendKey(t, m, runeKey("n"))
	require.Equal(t, 4, m.pos)
}

func TestWatchModel_Reset(t *testing.T) {
	resetFlags()
	a, ar := newTestAllocator(t, 4096)
	m := newWatchModel(a, ar, []trace.Op{trace.Alloc(1, 100), trace.Alloc(2, 200)})

	m, _ = sendKey(t, m, runeKey("f"))
	require.Equal(t, 2, m.pos)
	require.Equal(t, 2, a.Stats().LiveBlocks)

	m, _ = sendKey(t, m, runeKey("r"))
	require.Equal(t, 0, m.pos)
	require.Empty(t, m.last)
	require.Zero(t, a.Stats().LiveBlocks)
	require.Equal(t, a.Capacity(), a.FreeBytes())
	require.Contains(t, m.View(), "op 0/2")
}

func TestWatchModel_Error(t *testing.T) {
	resetFlags()
	a, ar := newTestAllocator(t, 4096)
	m := newWatchModel(a, ar, []trace.Op{trace.Free(9), trace.Alloc(1, 100)})

	m, _ = sendKey(t, m, runeKey("f"))
	require.ErrorIs(t, m.err, trace.ErrUnknownID)
	require.Equal(t, 0, m.pos)
	require.Contains(t, m.View(), "unknown")

	m, _ = sendKey(t, m, runeKey("r"))
	require.NoError(t, m.err)
}

func TestWatchModel_QuitAndResize(t *testing.T) {
	resetFlags()
	a, ar := newTestAllocator(t, 4096)
	m := newWatchModel(a, ar, nil)

	m, _ = sendKey(t, m, tea.WindowSizeMsg{Width: 40, Height: 20})
	require.Equal(t, 38, m.width)

	_, cmd := sendKey(t, m, runeKey("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}
