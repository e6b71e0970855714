package alloc

import (
	"math/bits"

	"github.com/joshuapare/buddykit/internal/format"
	"github.com/joshuapare/buddykit/internal/list"
)

// arenaLinks stores free-list links inside the free blocks themselves.
type arenaLinks struct {
	data []byte
}

func (l *arenaLinks) Prev(off uint64) uint64 { return format.Prev(l.data, off) }
func (l *arenaLinks) Next(off uint64) uint64 { return format.Next(l.data, off) }
func (l *arenaLinks) SetPrev(off, v uint64)  { format.SetPrev(l.data, off, v) }
func (l *arenaLinks) SetNext(off, v uint64)  { format.SetNext(l.data, off, v) }

// freeTable holds one FIFO list of free block offsets per class.
// Bit k of mask is set iff slot k is non-empty.
type freeTable struct {
	links *arenaLinks
	slots [NumSlots]list.List[uint64]
	mask  uint64
}

func (t *freeTable) reset(data []byte) {
	t.links = &arenaLinks{data: data}
	for k := range t.slots {
		t.slots[k].Init(format.NilOffset)
	}
	t.mask = 0
}

func (t *freeTable) push(k int, off uint64) {
	t.slots[k].PushTail(t.links, off)
	t.mask |= 1 << uint(k)
}

func (t *freeTable) pop(k int) (uint64, bool) {
	off, ok := t.slots[k].PopHead(t.links)
	if t.slots[k].Empty() {
		t.mask &^= 1 << uint(k)
	}
	return off, ok
}

func (t *freeTable) remove(k int, off uint64) {
	t.slots[k].Remove(t.links, off)
	if t.slots[k].Empty() {
		t.mask &^= 1 << uint(k)
	}
}

// firstFrom returns the lowest non-empty slot >= k.
func (t *freeTable) firstFrom(k int) (int, bool) {
	if k >= NumSlots {
		return 0, false
	}
	m := t.mask &^ (uint64(1)<<uint(k) - 1)
	if m == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(m), true
}

// highest returns the largest non-empty slot.
func (t *freeTable) highest() (int, bool) {
	if t.mask == 0 {
		return 0, false
	}
	return 63 - bits.LeadingZeros64(t.mask), true
}

func (t *freeTable) count(k int) int {
	return t.slots[k].Len()
}

func (t *freeTable) each(k int, fn func(off uint64) bool) {
	t.slots[k].Each(t.links, fn)
}
