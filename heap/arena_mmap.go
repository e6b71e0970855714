//go:build linux || darwin || freebsd

package heap

import (
	"errors"

	"golang.org/x/sys/unix"
)

func mapRegion(size int) ([]byte, bool, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func unmapRegion(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// advise drops the physical pages behind data; anonymous private pages read
// back as zero on next touch.
func advise(data []byte) error {
	return unix.Madvise(data, unix.MADV_DONTNEED)
}

func osPageSize() int {
	return unix.Getpagesize()
}
