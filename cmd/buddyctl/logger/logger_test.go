package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filePath(dir, time.Now()))
	require.NoError(t, err)

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestInit_Disabled(t *testing.T) {
	closeFn, err := Init(Options{})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	Info("dropped")
	require.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInit_TagsCommand(t *testing.T) {
	dir := t.TempDir()
	closeFn, err := Init(Options{Enabled: true, Dir: dir, Command: "simulate"})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Init(Options{}) })

	Info("replay done", "ops", 42)
	Debug("below level")
	require.NoError(t, closeFn())

	recs := readRecords(t, dir)
	require.Len(t, recs, 1)
	require.Equal(t, "replay done", recs[0]["msg"])
	require.Equal(t, "simulate", recs[0]["cmd"])
	require.EqualValues(t, 42, recs[0]["ops"])
	require.EqualValues(t, os.Getpid(), recs[0]["pid"])
}

func TestForArena(t *testing.T) {
	dir := t.TempDir()
	closeFn, err := Init(Options{Enabled: true, Dir: dir, Command: "stress"})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Init(Options{}) })

	ForArena("CacheLine", 65536, true).Warn("allocation failed", "size", 100)
	require.NoError(t, closeFn())

	recs := readRecords(t, dir)
	require.Len(t, recs, 1)
	require.Equal(t, "stress", recs[0]["cmd"])
	arena, ok := recs[0]["arena"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "CacheLine", arena["config"])
	require.EqualValues(t, 65536, arena["size"])
	require.Equal(t, true, arena["mapped"])
}

func TestLogDate(t *testing.T) {
	d, ok := logDate("buddyctl-2026-02-25.log")
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), d)

	for _, name := range []string{"notes.txt", "buddyctl-latest.log", "buddyctl-2026-02-25.txt"} {
		_, ok := logDate(name)
		require.False(t, ok, name)
	}
}

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := filePath(dir, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	recent := filePath(dir, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC))
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, recent, other} {
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	pruneLogs(dir, now.Add(-DefaultRetention))

	require.NoFileExists(t, old)
	require.FileExists(t, recent)
	require.FileExists(t, other)
}
