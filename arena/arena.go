package arena

import (
	"fmt"

	"github.com/hupe1980/rawmem/internal/assert"
	"github.com/hupe1980/rawmem/internal/mem"
)

// Stats tracks arena usage.
type Stats struct {
	Capacity  int    // size of the backing buffer
	Position  int    // current cursor
	HighWater int    // largest cursor ever observed
	Pushes    uint64 // successful pushes
	Failed    uint64 // pushes rejected for lack of space
}

// Arena is a bump allocator over a borrowed buffer.
type Arena struct {
	buf []byte
	pos int

	highWater int
	pushes    uint64
	failed    uint64
}

// New creates an Arena over buf. The arena never grows and never allocates;
// the caller keeps ownership of buf.
func New(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Push reserves n bytes rounded up to a multiple of 16 and returns the first
// n of them, zeroed. It returns nil when n is negative or when the request
// would reach the end of the buffer.
func (a *Arena) Push(n int) []byte {
	if n < 0 {
		return nil
	}
	// Checked before rounding so a huge n cannot overflow.
	if n >= len(a.buf)-a.pos {
		a.failed++
		return nil
	}
	size := mem.Align16(n)
	if a.pos+size >= len(a.buf) {
		a.failed++
		return nil
	}

	start := a.pos
	a.pos += size
	clear(a.buf[start:a.pos])

	a.pushes++
	if a.pos > a.highWater {
		a.highWater = a.pos
	}
	assert.Thatf(a.pos%mem.Alignment == 0, "arena cursor %d not aligned", a.pos)

	return a.buf[start : start+n : start+size]
}

// PushFrom pushes len(src) bytes and copies src into them. It returns the
// copy, or nil if the arena is full.
func (a *Arena) PushFrom(src []byte) []byte {
	dst := a.Push(len(src))
	if dst == nil {
		return nil
	}
	copy(dst, src)
	return dst
}

// Pop releases the most recent n bytes (rounded up to 16). If that is more
// than the arena holds, Pop does nothing.
func (a *Arena) Pop(n int) {
	size := mem.Align16(n)
	if n >= 0 && size <= a.pos {
		a.pos -= size
	}
}

// Peek returns the most recently pushed n-byte region without moving the
// cursor. It returns nil if fewer than align16(n) bytes are in use.
func (a *Arena) Peek(n int) []byte {
	size := mem.Align16(n)
	if n < 0 || size > a.pos {
		return nil
	}
	start := a.pos - size
	return a.buf[start : start+n : start+size]
}

// Clear resets the cursor to zero without touching memory.
func (a *Arena) Clear() {
	a.pos = 0
}

// Detach drops the arena's buffer. Every later Push fails. Use it when the
// memory behind the arena is about to go away.
func (a *Arena) Detach() {
	a.buf = nil
	a.pos = 0
}

// Mark returns the current cursor for a later Rewind.
func (a *Arena) Mark() int {
	return a.pos
}

// Rewind moves the cursor back to mark. Marks ahead of the cursor or
// negative marks are ignored.
func (a *Arena) Rewind(mark int) {
	if mark >= 0 && mark <= a.pos {
		a.pos = mark
	}
}

// Pos returns the cursor: the number of bytes in use.
func (a *Arena) Pos() int {
	return a.pos
}

// Cap returns the size of the backing buffer.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Available returns the largest n for which Push(n) currently succeeds.
func (a *Arena) Available() int {
	free := len(a.buf) - a.pos - 1
	if free < mem.Alignment {
		return 0
	}
	return free &^ (mem.Alignment - 1)
}

// Bytes returns the region in use, [0, Pos()).
func (a *Arena) Bytes() []byte {
	return a.buf[:a.pos:a.pos]
}

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	return Stats{
		Capacity:  len(a.buf),
		Position:  a.pos,
		HighWater: a.highWater,
		Pushes:    a.pushes,
		Failed:    a.failed,
	}
}

func (a *Arena) String() string {
	return fmt.Sprintf("Arena{pos: %d, cap: %d, high: %d, pushes: %d, failed: %d}",
		a.pos, len(a.buf), a.highWater, a.pushes, a.failed)
}
