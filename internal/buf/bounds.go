// Package buf contains overflow-safe size arithmetic and bounds helpers used
// when turning caller-supplied sizes and offsets into arena ranges.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// AddU64 adds a and b, returning ok = false on uint64 wrap-around.
func AddU64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}

// Range returns [off, off+n) as uint64 bounds if it lies within length.
func Range(length, off, n uint64) (uint64, bool) {
	end, ok := AddU64(off, n)
	if !ok || end > length {
		return 0, false
	}
	return end, true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
