package alloc

import (
	"fmt"

	"github.com/joshuapare/buddykit/internal/format"
)

// Stats holds allocator counters since the last Init.
type Stats struct {
	AllocCalls    int // Alloc and AllocAligned calls with a valid size
	AllocFailed   int // Calls that returned ErrNoSpace
	FreeCalls     int // Free calls with a non-nil reference
	Splits        int // Blocks halved during allocation
	Merges        int // Buddy pairs joined during Free
	AlignedAllocs int // Successful AllocAligned calls

	LiveBlocks     int    // Allocated blocks
	BytesInUse     uint64 // Sum of allocated block sizes, headers included
	PeakBytesInUse uint64
}

// Stats returns a copy of the allocator counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// Config returns the configuration in use.
func (a *Allocator) Config() Config {
	return a.cfg
}

// Capacity returns the managed arena length.
func (a *Allocator) Capacity() uint64 {
	return a.capacity
}

// MinClass returns the smallest block class.
func (a *Allocator) MinClass() int {
	return a.minClass
}

// MaxClass returns the largest block class.
func (a *Allocator) MaxClass() int {
	return a.maxClass
}

// FreeCount returns the number of free blocks of class k.
func (a *Allocator) FreeCount(k int) int {
	if k < 0 || k >= NumSlots {
		return 0
	}
	return a.free.count(k)
}

// FreeBytes returns the total size of all free blocks.
func (a *Allocator) FreeBytes() uint64 {
	var total uint64
	for k := a.minClass; k <= a.maxClass && k < NumSlots; k++ {
		total += uint64(a.free.count(k)) * SizeOf(k)
	}
	return total
}

// LargestFree returns the size of the largest free block, or 0.
func (a *Allocator) LargestFree() uint64 {
	k, ok := a.free.highest()
	if !ok {
		return 0
	}
	return SizeOf(k)
}

// FreeBlocks returns the offsets in the class-k free list, oldest first.
func (a *Allocator) FreeBlocks(k int) []uint64 {
	if k < 0 || k >= NumSlots {
		return nil
	}
	out := make([]uint64, 0, a.free.count(k))
	a.free.each(k, func(off uint64) bool {
		out = append(out, off)
		return true
	})
	return out
}

// Walk visits every block in address order until fn returns false. It
// fails if a header cannot be decoded or a block is misplaced.
func (a *Allocator) Walk(fn func(Block) bool) error {
	for off := uint64(0); off < a.capacity; {
		blk, err := format.ParseBlock(a.data, off)
		if err != nil {
			return &CorruptionError{Kind: KindBadHeader, Offset: off, Err: err}
		}
		k := int(blk.Class)
		if k < a.minClass || k > a.maxClass || !format.IsAligned(off, SizeOf(k)) || blk.End() > a.capacity {
			return &CorruptionError{Kind: KindBadHeader, Offset: off,
				Detail: fmt.Sprintf("class-%d block misplaced", k)}
		}
		if !fn(Block{Offset: off, Class: k, Free: blk.Free}) {
			return nil
		}
		off = blk.End()
	}
	return nil
}

// UsableSize returns the number of bytes available at ref.
func (a *Allocator) UsableSize(ref Ref) (uint64, error) {
	off, k, _, err := a.resolve(ref)
	if err != nil {
		return 0, err
	}
	return off + SizeOf(k) - uint64(ref), nil
}

// Bytes returns the full usable slice at ref.
func (a *Allocator) Bytes(ref Ref) ([]byte, error) {
	n, err := a.UsableSize(ref)
	if err != nil {
		return nil, err
	}
	r := uint64(ref)
	return a.data[r : r+n : r+n], nil
}

// Snapshot is a point-in-time summary used by reports.
type Snapshot struct {
	Config      Config
	Capacity    uint64
	MinClass    int
	MaxClass    int
	Stats       Stats
	FreeBytes   uint64
	LargestFree uint64
	FreeCounts  []int // Indexed by class - MinClass
}

// Snapshot captures the current allocator state.
func (a *Allocator) Snapshot() Snapshot {
	s := Snapshot{
		Config:      a.cfg,
		Capacity:    a.capacity,
		MinClass:    a.minClass,
		MaxClass:    a.maxClass,
		Stats:       a.stats,
		FreeBytes:   a.FreeBytes(),
		LargestFree: a.LargestFree(),
	}
	for k := a.minClass; k <= a.maxClass; k++ {
		s.FreeCounts = append(s.FreeCounts, a.free.count(k))
	}
	return s
}
