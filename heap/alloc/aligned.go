package alloc

import (
	"fmt"

	"github.com/joshuapare/buddykit/heap"
	"github.com/joshuapare/buddykit/internal/format"
)

// AllocAligned is Alloc with a payload whose absolute address is a
// multiple of alignment. Alignments up to Config.Alignment are served by
// Alloc directly. Larger ones over-allocate and shift the payload; an 8-byte
// shim before the shifted payload lets Free find the block header again.
func (a *Allocator) AllocAligned(n, alignment int) (Ref, []byte, error) {
	if a.poison != nil {
		return NilRef, nil, a.poison
	}
	if alignment <= 0 || alignment > MaxAlignment || !format.IsPow2(uint64(alignment)) {
		return NilRef, nil, fmt.Errorf("%w: %d", ErrBadAlignment, alignment)
	}
	if alignment <= a.cfg.Alignment {
		ref, buf, err := a.Alloc(n)
		if err == nil {
			a.stats.AlignedAllocs++
		}
		return ref, buf, err
	}
	if n <= 0 {
		return NilRef, nil, ErrZeroSize
	}
	a.stats.AllocCalls++

	// The plain payload position is already Config.Alignment aligned, so
	// the shift never exceeds alignment-Config.Alignment.
	slack := uint64(alignment - a.cfg.Alignment)
	off, k, err := a.allocBlock(uint64(n) + slack)
	if err != nil {
		return NilRef, nil, err
	}
	a.stats.AlignedAllocs++

	base := uint64(heap.Addr(a.data))
	plain := off + uint64(a.cfg.HeaderSize)
	ref := format.AlignUp(base+plain, uint64(alignment)) - base
	if ref != plain {
		format.PutShim(a.data, ref, uint32(ref-off))
	}
	if logAlloc {
		debugLogf("AllocAligned(%d, %d): block=%d class=%d payload=%d", n, alignment, off, k, ref)
	}
	end := off + SizeOf(k)
	return Ref(ref), a.data[ref : ref+uint64(n) : end], nil
}
