package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSpace indicates that no free block large enough exists.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrZeroSize indicates a request for zero (or negative) bytes.
	ErrZeroSize = errors.New("alloc: zero-size request")

	// ErrBadAlignment indicates an alignment that is not a power of two or
	// exceeds MaxAlignment.
	ErrBadAlignment = errors.New("alloc: bad alignment")

	// ErrBadConfig indicates an inconsistent Config.
	ErrBadConfig = errors.New("alloc: bad config")

	// ErrArenaTooSmall indicates a region shorter than Config.MinBlockSize.
	ErrArenaTooSmall = errors.New("alloc: arena smaller than minimum block")

	// ErrMisaligned indicates a region whose base address does not satisfy
	// Config.Alignment.
	ErrMisaligned = errors.New("alloc: arena base misaligned")

	// ErrNoPurger indicates Release was called without WithPurger.
	ErrNoPurger = errors.New("alloc: no purger configured")

	// ErrCorrupt matches every *CorruptionError.
	ErrCorrupt = errors.New("alloc: heap corruption")
)

// CorruptionKind classifies a CorruptionError.
type CorruptionKind string

const (
	// KindDoubleFree is a Free of a block that is already free.
	KindDoubleFree CorruptionKind = "double_free"

	// KindForeignRef is a reference that cannot have come from this allocator.
	KindForeignRef CorruptionKind = "foreign_ref"

	// KindBadHeader is a block header with a bad tag or check byte.
	KindBadHeader CorruptionKind = "bad_header"

	// KindFreeList is a free-list entry that does not point at a free block
	// of the list's class.
	KindFreeList CorruptionKind = "free_list"
)

// CorruptionError reports a damaged heap or a misuse that would damage it.
type CorruptionError struct {
	Kind   CorruptionKind
	Offset uint64 // Arena offset of the offending reference or block
	Detail string
	Err    error // Underlying decode error, if any
}

func (e *CorruptionError) Error() string {
	msg := fmt.Sprintf("alloc: %s at 0x%X", e.Kind, e.Offset)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrCorrupt.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupt
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}
