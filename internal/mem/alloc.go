package mem

import (
	"unsafe"
)

// Alignment is the minimum alignment every allocator in this module guarantees.
const Alignment = 16

// CacheLine is the alignment used for buffers shared between goroutines.
const CacheLine = 64

// AllocAligned allocates a byte slice of the given size whose first byte is
// aligned to align. align must be a power of two; values below Alignment are
// raised to Alignment.
//
// Note: This function allocates slightly more memory than requested to ensure alignment.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align < Alignment {
		align = Alignment
	}

	// Allocate size + align so the start can be shifted by up to align-1 bytes.
	buf := make([]byte, size+align)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	mask := uintptr(align - 1)
	offset := (uintptr(align) - (addr & mask)) & mask

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// IsAligned reports whether the first byte of buf sits on an align boundary.
// Empty slices are reported as aligned.
func IsAligned(buf []byte, align int) bool {
	if len(buf) == 0 {
		return true
	}
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	return addr&uintptr(align-1) == 0
}
