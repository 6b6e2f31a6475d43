package mem

import "unsafe"

// Offset returns the index of p[0] inside base. ok is false when p is empty,
// base is empty, or p does not start inside base.
func Offset(base, p []byte) (off int, ok bool) {
	if len(base) == 0 || cap(p) == 0 {
		return 0, false
	}
	lo := uintptr(unsafe.Pointer(unsafe.SliceData(base))) //nolint:gosec // address comparison only
	at := uintptr(unsafe.Pointer(unsafe.SliceData(p)))    //nolint:gosec // address comparison only
	if at < lo || at >= lo+uintptr(len(base)) {
		return 0, false
	}
	return int(at - lo), true //nolint:gosec // bounded by len(base)
}
