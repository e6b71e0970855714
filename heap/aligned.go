package heap

import (
	"unsafe"

	"github.com/joshuapare/buddykit/internal/format"
)

// AllocAligned allocates a Go-managed byte slice of the given size whose first
// byte sits at an address divisible by align (a power of two).
//
// Note: This function allocates align extra bytes to find an aligned offset.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 || align <= 0 || !format.IsPow2(uint64(align)) {
		return nil
	}

	buf := make([]byte, size+align)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := (uintptr(align) - (addr & uintptr(align-1))) & uintptr(align-1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// Addr returns the address of b[0], or 0 for an empty slice.
func Addr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // address only, never dereferenced
}
