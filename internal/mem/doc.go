// Package mem provides low-level helpers shared by the allocators.
//
// # Aligned Allocation
//
// AllocAligned returns a heap slice whose first byte sits on a requested
// power-of-two boundary. Tests and the heap-backed hunk use it to satisfy the
// alignment preconditions of the buddy allocator.
//
// # Size Arithmetic
//
// AlignUp, IsPow2 and NextPow2 implement the rounding rules every allocator in
// this module relies on. All sizes are plain ints, matching len() and cap().
//
// # Slice Offsets
//
// Offset recovers the position of a sub-slice inside its parent buffer. It is
// the only place where the module compares raw addresses.
package mem
