package heap

import (
	"fmt"

	"github.com/joshuapare/buddykit/internal/buf"
	"github.com/joshuapare/buddykit/internal/format"
)

// Arena is a fixed region of memory handed to an allocator once.
type Arena struct {
	data     []byte
	size     int
	pageSize int
	mapped   bool // true when data came from the OS and must be released
}

// NewArena maps size bytes of zeroed, page-aligned memory.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena size %d: %w", size, ErrBadSize)
	}
	data, mapped, err := mapRegion(size)
	if err != nil {
		return nil, fmt.Errorf("heap: map %d bytes: %w", size, err)
	}
	return &Arena{
		data:     data,
		size:     size,
		pageSize: osPageSize(),
		mapped:   mapped,
	}, nil
}

// FromBytes wraps caller-owned memory. Close is a no-op for such arenas and
// Purge never releases pages.
func FromBytes(b []byte) *Arena {
	return &Arena{
		data:     b,
		size:     len(b),
		pageSize: osPageSize(),
	}
}

// Bytes returns the arena memory. The slice is invalid after Close.
func (a *Arena) Bytes() []byte { return a.data }

// Size returns the arena length in bytes.
func (a *Arena) Size() int { return a.size }

// PageSize returns the OS page size used by Purge.
func (a *Arena) PageSize() int { return a.pageSize }

// Mapped reports whether the memory was obtained from the OS.
func (a *Arena) Mapped() bool { return a.mapped }

// Purge releases every whole page inside [off, off+n) back to the OS and
// returns the number of bytes released. Partial pages at either end are kept.
func (a *Arena) Purge(off, n int) (int, error) {
	if a.data == nil {
		return 0, ErrClosed
	}
	if !buf.Has(a.data, off, n) {
		return 0, fmt.Errorf("purge [%d,+%d): %w", off, n, ErrOutOfRange)
	}
	if !a.mapped || n == 0 {
		return 0, nil
	}

	// Page boundaries are absolute addresses, not arena offsets.
	base := uint64(Addr(a.data))
	page := uint64(a.pageSize)
	start := format.AlignUp(base+uint64(off), page) - base
	end := format.AlignDown(base+uint64(off+n), page) - base
	if end <= start {
		return 0, nil
	}
	if err := advise(a.data[start:end]); err != nil {
		return 0, fmt.Errorf("heap: purge: %w", err)
	}
	return int(end - start), nil
}

// Close releases mapped memory. It is safe to call more than once.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}
	var err error
	if a.mapped {
		err = unmapRegion(a.data)
	}
	a.data = nil
	return err
}
