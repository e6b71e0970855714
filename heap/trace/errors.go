package trace

import "errors"

var (
	// ErrBadOp indicates a malformed trace record.
	ErrBadOp = errors.New("trace: bad operation")

	// ErrUnknownID indicates a free of an id that was never allocated or
	// was already freed.
	ErrUnknownID = errors.New("trace: unknown allocation id")

	// ErrUnknownCodec indicates an unsupported codec name.
	ErrUnknownCodec = errors.New("trace: unknown codec")
)
