package verify

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/joshuapare/buddykit/heap/alloc"
)

// ValidationError describes one failed check.
type ValidationError struct {
	Type    string
	Message string
	Offset  int64
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Inspector is the read-only view of an allocator the checks need.
// *alloc.Allocator implements it.
type Inspector interface {
	Capacity() uint64
	MinClass() int
	MaxClass() int
	Walk(fn func(alloc.Block) bool) error
	FreeBlocks(k int) []uint64
	FreeBytes() uint64
	Stats() alloc.Stats
}

// AllInvariants runs every allocator check.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(a Inspector) error {
	blocks, err := collect(a)
	if err != nil {
		return err
	}
	if err := conservation(a, blocks); err != nil {
		return err
	}
	if err := alignment(a, blocks); err != nil {
		return err
	}
	if err := freeListConsistency(a, blocks); err != nil {
		return err
	}
	return coalescing(a, blocks)
}

// Conservation checks that blocks tile the arena and that free and used
// byte totals agree with the allocator's counters.
func Conservation(a Inspector) error {
	blocks, err := collect(a)
	if err != nil {
		return err
	}
	return conservation(a, blocks)
}

// Alignment checks that every block offset is a multiple of its size and
// that every class is within the allocator's range.
func Alignment(a Inspector) error {
	blocks, err := collect(a)
	if err != nil {
		return err
	}
	return alignment(a, blocks)
}

// FreeListConsistency checks that the free lists contain exactly the free
// blocks found by walking the arena, each once and in the list of its class.
func FreeListConsistency(a Inspector) error {
	blocks, err := collect(a)
	if err != nil {
		return err
	}
	return freeListConsistency(a, blocks)
}

// Coalescing checks that no free block has a free buddy of the same class.
func Coalescing(a Inspector) error {
	blocks, err := collect(a)
	if err != nil {
		return err
	}
	return coalescing(a, blocks)
}

func collect(a Inspector) ([]alloc.Block, error) {
	var blocks []alloc.Block
	if err := a.Walk(func(b alloc.Block) bool {
		blocks = append(blocks, b)
		return true
	}); err != nil {
		return nil, &ValidationError{
			Type:    "Walk",
			Message: err.Error(),
			Offset:  -1,
		}
	}
	return blocks, nil
}

func conservation(a Inspector, blocks []alloc.Block) error {
	var total, free, used uint64
	live := 0
	next := uint64(0)
	for _, b := range blocks {
		if b.Offset != next {
			return &ValidationError{
				Type:    "Conservation",
				Message: fmt.Sprintf("gap or overlap: expected block at 0x%X", next),
				Offset:  int64(b.Offset),
			}
		}
		next = b.End()
		total += b.Size()
		if b.Free {
			free += b.Size()
		} else {
			used += b.Size()
			live++
		}
	}

	if total != a.Capacity() {
		return &ValidationError{
			Type:    "Conservation",
			Message: fmt.Sprintf("blocks cover %d bytes, capacity is %d", total, a.Capacity()),
			Offset:  -1,
			Details: map[string]any{"covered": total, "capacity": a.Capacity()},
		}
	}
	if free != a.FreeBytes() {
		return &ValidationError{
			Type:    "Conservation",
			Message: fmt.Sprintf("free blocks total %d bytes, free lists report %d", free, a.FreeBytes()),
			Offset:  -1,
			Details: map[string]any{"walked": free, "listed": a.FreeBytes()},
		}
	}
	st := a.Stats()
	if used != st.BytesInUse || live != st.LiveBlocks {
		return &ValidationError{
			Type: "Conservation",
			Message: fmt.Sprintf("allocated blocks %d/%d bytes, stats report %d/%d",
				live, used, st.LiveBlocks, st.BytesInUse),
			Offset: -1,
		}
	}
	return nil
}

func alignment(a Inspector, blocks []alloc.Block) error {
	for _, b := range blocks {
		if b.Class < a.MinClass() || b.Class > a.MaxClass() {
			return &ValidationError{
				Type:    "Alignment",
				Message: fmt.Sprintf("class %d outside [%d,%d]", b.Class, a.MinClass(), a.MaxClass()),
				Offset:  int64(b.Offset),
			}
		}
		if b.Offset%b.Size() != 0 {
			return &ValidationError{
				Type:    "Alignment",
				Message: fmt.Sprintf("block of %d bytes not aligned to its size", b.Size()),
				Offset:  int64(b.Offset),
			}
		}
	}
	return nil
}

// freeListConsistency indexes blocks by offset>>MinClass so one bitmap per
// class covers arenas up to 2^32 minimum blocks.
func freeListConsistency(a Inspector, blocks []alloc.Block) error {
	shift := uint(a.MinClass())
	if a.Capacity()>>shift > 1<<32 {
		return &ValidationError{
			Type:    "FreeListConsistency",
			Message: "arena too large to index",
			Offset:  -1,
		}
	}

	walked := make(map[int]*roaring.Bitmap)
	for _, b := range blocks {
		if !b.Free {
			continue
		}
		bm, ok := walked[b.Class]
		if !ok {
			bm = roaring.New()
			walked[b.Class] = bm
		}
		bm.Add(uint32(b.Offset >> shift))
	}

	all := roaring.New()
	for k := a.MinClass(); k <= a.MaxClass(); k++ {
		listed := roaring.New()
		for _, off := range a.FreeBlocks(k) {
			idx := uint32(off >> shift)
			if !all.CheckedAdd(idx) {
				return &ValidationError{
					Type:    "FreeListConsistency",
					Message: fmt.Sprintf("block listed twice (class %d)", k),
					Offset:  int64(off),
				}
			}
			listed.Add(idx)
		}

		want := walked[k]
		if want == nil {
			want = roaring.New()
		}
		if listed.Equals(want) {
			continue
		}
		if missing := roaring.AndNot(want, listed); !missing.IsEmpty() {
			return &ValidationError{
				Type:    "FreeListConsistency",
				Message: fmt.Sprintf("free class-%d block missing from its list", k),
				Offset:  int64(uint64(missing.Minimum()) << shift),
				Details: map[string]any{"missing": missing.GetCardinality()},
			}
		}
		extra := roaring.AndNot(listed, want)
		return &ValidationError{
			Type:    "FreeListConsistency",
			Message: fmt.Sprintf("class-%d list holds a block that is not a free class-%d block", k, k),
			Offset:  int64(uint64(extra.Minimum()) << shift),
			Details: map[string]any{"extra": extra.GetCardinality()},
		}
	}
	return nil
}

func coalescing(a Inspector, blocks []alloc.Block) error {
	freeAt := make(map[uint64]int, len(blocks))
	for _, b := range blocks {
		if b.Free {
			freeAt[b.Offset] = b.Class
		}
	}
	for _, b := range blocks {
		if !b.Free || b.Class >= a.MaxClass() {
			continue
		}
		buddy := b.Offset ^ b.Size()
		if buddy+b.Size() > a.Capacity() {
			continue
		}
		if k, ok := freeAt[buddy]; ok && k == b.Class {
			return &ValidationError{
				Type:    "Coalescing",
				Message: fmt.Sprintf("free buddies of %d bytes left unmerged", b.Size()),
				Offset:  int64(min(b.Offset, buddy)),
			}
		}
	}
	return nil
}

// Region is a byte range held by a caller.
type Region struct {
	Off uint64
	Len uint64
}

// NoOverlap checks that no two regions share a byte.
func NoOverlap(regions []Region) error {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(x, y Region) int { return cmp.Compare(x.Off, y.Off) })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Off+prev.Len > cur.Off {
			return &ValidationError{
				Type:    "NoOverlap",
				Message: fmt.Sprintf("[0x%X,+%d) overlaps [0x%X,+%d)", prev.Off, prev.Len, cur.Off, cur.Len),
				Offset:  int64(cur.Off),
			}
		}
	}
	return nil
}
