package printer

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/trace"
	"github.com/joshuapare/buddykit/internal/testutil"
)

func snapshot(t *testing.T) alloc.Snapshot {
	t.Helper()
	a, err := alloc.New(testutil.Region(t, 1<<20), &alloc.ConfigCompact)
	require.NoError(t, err)
	_, _, err = a.Alloc(100)
	require.NoError(t, err)
	return a.Snapshot()
}

func TestStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Stats(&buf, snapshot(t)))

	out := buf.String()
	require.Contains(t, out, "Allocator: Compact (header-then-round)")
	require.Contains(t, out, "1.0 MiB (1,048,576 bytes)")
	require.Contains(t, out, "128 B in 1 blocks")
	require.Contains(t, out, "Splits/Merges: 13 / 0")
}

func TestFreeLists(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FreeLists(&buf, snapshot(t)))

	out := buf.String()
	require.Contains(t, out, "Class")
	require.Contains(t, out, "524,288")
	require.Contains(t, out, "1,048,448")
}

func TestClasses(t *testing.T) {
	var buf bytes.Buffer
	cfg := alloc.ConfigCacheLine
	require.NoError(t, Classes(&buf, cfg, cfg.Classes(1<<12)))
	out := buf.String()
	require.Contains(t, out, "Config CacheLine: header 64, min block 128, align 64")
	require.Contains(t, out, "4,032")
}

func TestReplay(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Replay(&buf, trace.Result{Ops: 1500, Allocs: 1000, Frees: 500, Live: 500, PeakBytesInUse: 2048}))
	require.Contains(t, buf.String(), "Replayed 1,500 ops")
	require.Contains(t, buf.String(), "Peak in use: 2.0 KiB")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, snapshot(t)))

	var got alloc.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, uint64(1<<20), got.Capacity)
}

func TestFragmentation(t *testing.T) {
	require.Zero(t, Fragmentation(alloc.Snapshot{}))
	require.InDelta(t, 0.5, Fragmentation(alloc.Snapshot{FreeBytes: 2048, LargestFree: 1024}), 1e-9)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteError(t *testing.T) {
	require.ErrorContains(t, Stats(failWriter{}, snapshot(t)), "disk full")
}
