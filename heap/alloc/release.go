package alloc

import (
	"fmt"

	"github.com/joshuapare/buddykit/internal/format"
)

// Release hands the pages inside free blocks back to the OS through the
// configured Purger and returns the number of bytes released. Each block
// keeps its header and links; only whole pages past them are purged, so
// released memory reads back as zero on next use.
func (a *Allocator) Release() (int, error) {
	if a.poison != nil {
		return 0, a.poison
	}
	if a.purger == nil {
		return 0, ErrNoPurger
	}
	released := 0
	for k := a.minClass; k <= a.maxClass; k++ {
		size := SizeOf(k)
		if size <= format.LinkRecordSize {
			continue
		}
		var perr error
		a.free.each(k, func(off uint64) bool {
			start := off + format.LinkRecordSize
			n, err := a.purger.Purge(int(start), int(size-format.LinkRecordSize))
			if err != nil {
				perr = fmt.Errorf("alloc: release block 0x%X: %w", off, err)
				return false
			}
			released += n
			return true
		})
		if perr != nil {
			return released, perr
		}
	}
	if logAlloc {
		debugLogf("Release: %d bytes", released)
	}
	return released, nil
}
