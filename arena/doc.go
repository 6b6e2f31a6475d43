// Package arena provides a linear bump allocator over a caller-supplied buffer.
//
// # Allocation Model
//
// Arena hands out consecutive 16-byte aligned regions of its buffer by
// advancing a single cursor. Deallocation follows strict stack discipline:
// Pop must mirror earlier Push calls in reverse order, or Clear drops
// everything at once. The arena keeps no record of earlier push sizes, so a
// mismatched Pop silently moves the cursor to the wrong place.
//
//	a := arena.New(make([]byte, 64))
//	p := a.Push(10) // bytes [0, 10), cursor at 16
//	q := a.Push(20) // bytes [16, 36), cursor at 48
//	a.Pop(20)       // cursor back at 16
//	last := a.Peek(10) // same region as p
//
// Every region returned by Push is zeroed. Clear is O(1) and does not touch
// memory; the next Push over a span zeroes it lazily.
//
// # Capacity Boundary
//
// A push succeeds only while pos+aligned < capacity. The comparison is strict,
// so the final 16 bytes of the buffer are never handed out.
//
// # Scratch Scopes
//
// Scratch layers nested Begin/End scopes on top of an Arena. Begin records the
// cursor, End restores it, and everything pushed in between is released as a
// unit. The number of open scopes is bounded.
//
// # Thread Safety
//
// Arena and Scratch are not safe for concurrent use. The intended pattern is
// one arena per goroutine; a shared arena must be guarded by the caller.
package arena
