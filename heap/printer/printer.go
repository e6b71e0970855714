// Package printer renders allocator state for humans and for JSON consumers.
// Numbers are grouped with the English locale (1,048,576).
package printer

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/buddykit/heap/alloc"
	"github.com/joshuapare/buddykit/heap/trace"
)

// errWriter remembers the first write error so report bodies stay linear.
type errWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func newWriter(w io.Writer) *errWriter {
	return &errWriter{w: w, p: message.NewPrinter(language.English)}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = e.p.Fprintf(e.w, format, args...)
}

// Stats writes a summary of s.
func Stats(w io.Writer, s alloc.Snapshot) error {
	ew := newWriter(w)
	st := s.Stats

	ew.printf("Allocator: %s (%s)\n", s.Config.Name, s.Config.Policy)
	ew.printf("%s\n", strings.Repeat("=", 40))
	ew.printf("  Capacity:      %s (%d bytes)\n", humanize.IBytes(s.Capacity), s.Capacity)
	ew.printf("  Header/MinBlk: %d / %d bytes, align %d\n",
		s.Config.HeaderSize, s.Config.MinBlockSize, s.Config.Alignment)
	ew.printf("  Classes:       %d..%d\n\n", s.MinClass, s.MaxClass)

	ew.printf("Usage:\n")
	ew.printf("  In use:        %s in %d blocks\n", humanize.IBytes(st.BytesInUse), st.LiveBlocks)
	ew.printf("  Peak:          %s\n", humanize.IBytes(st.PeakBytesInUse))
	ew.printf("  Free:          %s (largest %s)\n", humanize.IBytes(s.FreeBytes), humanize.IBytes(s.LargestFree))
	ew.printf("  Fragmentation: %.1f%%\n\n", Fragmentation(s)*100)

	ew.printf("Operations:\n")
	ew.printf("  Alloc calls:   %d (%d failed, %d aligned)\n", st.AllocCalls, st.AllocFailed, st.AlignedAllocs)
	ew.printf("  Free calls:    %d\n", st.FreeCalls)
	ew.printf("  Splits/Merges: %d / %d\n", st.Splits, st.Merges)
	return ew.err
}

// FreeLists writes one line per class with its free-list population.
func FreeLists(w io.Writer, s alloc.Snapshot) error {
	ew := newWriter(w)
	ew.printf("%-6s %12s %8s %14s\n", "Class", "Block", "Free", "Bytes")
	for i, n := range s.FreeCounts {
		k := s.MinClass + i
		size := alloc.SizeOf(k)
		ew.printf("%-6d %12d %8d %14d\n", k, size, n, uint64(n)*size)
	}
	ew.printf("%-6s %12s %8s %14d\n", "total", "", "", s.FreeBytes)
	return ew.err
}

// Classes writes the class table of a configuration.
func Classes(w io.Writer, cfg alloc.Config, infos []alloc.ClassInfo) error {
	ew := newWriter(w)
	ew.printf("Config %s: header %d, min block %d, align %d, %s\n",
		cfg.Name, cfg.HeaderSize, cfg.MinBlockSize, cfg.Alignment, cfg.Policy)
	ew.printf("%-6s %14s %14s\n", "Class", "Block", "Max request")
	for _, ci := range infos {
		ew.printf("%-6d %14d %14d\n", ci.Class, ci.BlockSize, ci.MaxPayload)
	}
	return ew.err
}

// Replay writes a replay summary.
func Replay(w io.Writer, res trace.Result) error {
	ew := newWriter(w)
	ew.printf("Replayed %d ops: %d allocs, %d frees, %d failed, %d skipped, %d live\n",
		res.Ops, res.Allocs, res.Frees, res.Failures, res.Skipped, res.Live)
	ew.printf("Peak in use: %s\n", humanize.IBytes(res.PeakBytesInUse))
	return ew.err
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Fragmentation returns 1 - largest/free, or 0 when nothing is free.
func Fragmentation(s alloc.Snapshot) float64 {
	if s.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(s.LargestFree)/float64(s.FreeBytes)
}
