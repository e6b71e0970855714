//go:build !linux && !darwin && !freebsd && !windows

package heap

import "github.com/joshuapare/buddykit/internal/format"

// mapRegion falls back to Go memory when no mapping primitive is wired.
// The result is page aligned so Purge arithmetic stays uniform, but it is
// reported as unmapped, which turns Purge into a no-op.
func mapRegion(size int) ([]byte, bool, error) {
	return AllocAligned(size, format.PageSize), false, nil
}

func unmapRegion([]byte) error { return nil }

func advise([]byte) error { return nil }

func osPageSize() int { return format.PageSize }
