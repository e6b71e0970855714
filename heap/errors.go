package heap

import "errors"

var (
	// ErrBadSize indicates a non-positive arena or alignment size.
	ErrBadSize = errors.New("heap: bad size")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("heap: arena closed")

	// ErrOutOfRange indicates a range that does not lie inside the arena.
	ErrOutOfRange = errors.New("heap: range out of bounds")
)
