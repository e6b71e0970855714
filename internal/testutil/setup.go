// Package testutil holds fixtures shared by allocator tests.
package testutil

import (
	"testing"

	"github.com/joshuapare/buddykit/heap"
)

// RegionAlign is the base alignment of regions returned by Region. It
// satisfies every predefined allocator configuration and AllocAligned
// requests up to a page.
const RegionAlign = 4096

// Region returns size zeroed bytes whose base is RegionAlign aligned.
//
// Example:
//
//	a, err := alloc.New(testutil.Region(t, 1024), &alloc.ConfigCompact)
func Region(t testing.TB, size int) []byte {
	t.Helper()
	b := heap.AllocAligned(size, RegionAlign)
	if b == nil {
		t.Fatalf("AllocAligned(%d, %d) failed", size, RegionAlign)
	}
	return b
}

// MappedRegion returns an OS-backed arena of size bytes, closed when the
// test ends.
func MappedRegion(t testing.TB, size int) *heap.Arena {
	t.Helper()
	ar, err := heap.NewArena(size)
	if err != nil {
		t.Fatalf("NewArena(%d): %v", size, err)
	}
	t.Cleanup(func() { _ = ar.Close() })
	return ar
}

// Fill writes a pattern derived from id over buf.
func Fill(buf []byte, id int) {
	for i := range buf {
		buf[i] = byte(id*31 + i)
	}
}

// Check reports whether buf still holds the pattern written by Fill(buf, id).
func Check(buf []byte, id int) bool {
	for i := range buf {
		if buf[i] != byte(id*31+i) {
			return false
		}
	}
	return true
}
