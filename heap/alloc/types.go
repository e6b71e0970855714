package alloc

import "log/slog"

// Ref is the arena-relative offset of an allocation's payload.
type Ref uint64

// NilRef is never returned by a successful allocation. Free(NilRef) is a no-op.
const NilRef Ref = 0

// Block describes one block found by Walk.
type Block struct {
	Offset uint64 // Arena offset of the header
	Class  int
	Free   bool
}

// Size returns the block length, header included.
func (b Block) Size() uint64 { return SizeOf(b.Class) }

// End returns the offset one past the block.
func (b Block) End() uint64 { return b.Offset + b.Size() }

// Purger releases whole pages of arena memory back to the OS.
// heap.Arena implements it.
type Purger interface {
	Purge(off, n int) (int, error)
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sends allocator warnings and errors to l.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithPurger enables Release. Purger offsets are relative to the start of
// the region passed to Init.
func WithPurger(p Purger) Option {
	return func(a *Allocator) {
		a.purger = p
	}
}
