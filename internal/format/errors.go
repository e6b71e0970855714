package format

import "errors"

var (
	// ErrSignatureMismatch indicates a header carried an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadCheck indicates the class/check pair of a header disagrees.
	ErrBadCheck = errors.New("format: header check mismatch")
)
