//go:build windows

package heap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func mapRegion(size int) ([]byte, bool, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, false, err
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size) //nolint:gosec // VirtualAlloc returns a valid region
	return data, true, nil
}

func unmapRegion(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return windows.VirtualFree(Addr(data), 0, windows.MEM_RELEASE)
}

// advise marks the pages as no longer of interest. Unlike madvise on Linux,
// contents are undefined (not zero) until rewritten.
func advise(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := windows.VirtualAlloc(Addr(data), uintptr(len(data)), windows.MEM_RESET, windows.PAGE_READWRITE)
	return err
}

func osPageSize() int {
	return windows.Getpagesize()
}
