package buddy

import (
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/rawmem/internal/assert"
	"github.com/hupe1980/rawmem/internal/mem"
)

var (
	// ErrNotPowerOfTwo is returned when the buffer length is not a power of two.
	ErrNotPowerOfTwo = errors.New("buddy: capacity must be a power of two")
	// ErrUnaligned is returned when the buffer is not 16-byte aligned.
	ErrUnaligned = errors.New("buddy: buffer is not aligned to the minimum alignment")
	// ErrInvalidBlockSize is returned for a bad WithMinBlockSize value.
	ErrInvalidBlockSize = errors.New("buddy: minimum block size must be a power of two >= 16")
	// ErrBufferTooSmall is returned when the buffer is smaller than one block.
	ErrBufferTooSmall = errors.New("buddy: buffer smaller than minimum block size")
	// ErrInvalidPointer is returned by Release for slices that do not start a
	// block of this allocator.
	ErrInvalidPointer = errors.New("buddy: pointer not allocated by this allocator")
	// ErrAlreadyFree is returned by Release for a block that is already free.
	ErrAlreadyFree = errors.New("buddy: block already free")
)

const (
	metaFree  = 0x80
	metaOrder = 0x3f
)

// Block describes one block of the partition.
type Block struct {
	Offset int
	Size   int
	Free   bool
}

// Stats tracks allocator state and activity.
type Stats struct {
	Capacity       int
	MinBlockSize   int
	FreeBytes      int
	FreeBlocks     int
	UsedBlocks     int
	LargestFree    int
	Allocs         uint64
	Releases       uint64
	Failed         uint64
	Merges         uint64
	CoalescePasses uint64
}

// Allocator is a buddy allocator over a borrowed buffer.
type Allocator struct {
	buf   []byte
	align int
	shift int
	meta  []uint8

	allocs   uint64
	releases uint64
	failed   uint64
	merges   uint64
	passes   uint64
}

// New creates an allocator over buf. len(buf) must be a power of two and buf
// must be 16-byte aligned. The whole buffer starts as one free block.
func New(buf []byte, opts ...Option) (*Allocator, error) {
	o := options{minBlockSize: DefaultMinBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if !mem.IsPow2(o.minBlockSize) || o.minBlockSize < mem.Alignment {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, o.minBlockSize)
	}

	capacity := len(buf)
	if !mem.IsPow2(capacity) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, capacity)
	}
	if capacity < o.minBlockSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, capacity, o.minBlockSize)
	}
	if !mem.IsAligned(buf, mem.Alignment) {
		return nil, ErrUnaligned
	}

	b := &Allocator{
		buf:   buf[:capacity:capacity],
		align: o.minBlockSize,
		shift: mem.Log2(o.minBlockSize),
		meta:  make([]uint8, capacity/o.minBlockSize),
	}
	b.setBlock(0, capacity, true)
	return b, nil
}

func (b *Allocator) sizeAt(off int) int {
	return 1 << (b.meta[off>>b.shift] & metaOrder)
}

func (b *Allocator) isFree(off int) bool {
	return b.meta[off>>b.shift]&metaFree != 0
}

func (b *Allocator) isBlock(off int) bool {
	return b.meta[off>>b.shift] != 0
}

func (b *Allocator) setBlock(off, size int, free bool) {
	m := uint8(mem.Log2(size)) //nolint:gosec // log2 of an int fits in 6 bits
	if free {
		m |= metaFree
	}
	b.meta[off>>b.shift] = m
}

func (b *Allocator) setFree(off int, free bool) {
	if free {
		b.meta[off>>b.shift] |= metaFree
	} else {
		b.meta[off>>b.shift] &^= metaFree
	}
}

// merge joins the free block at off with its equal-size right buddy.
func (b *Allocator) merge(off, size int) {
	b.meta[(off+size)>>b.shift] = 0
	b.setBlock(off, size<<1, true)
	b.merges++
}

// mergeable reports whether the block at off is a free left child whose
// right buddy is free and of the same size.
func (b *Allocator) mergeable(off, size int) bool {
	if off&size != 0 || !b.isFree(off) {
		return false
	}
	buddy := off + size
	return buddy < len(b.buf) && b.isFree(buddy) && b.sizeAt(buddy) == size
}

// blockSize returns the block size that serves an n-byte request.
func (b *Allocator) blockSize(n int) int {
	size := mem.Align16(n)
	actual := b.align
	for size > actual {
		actual <<= 1
	}
	return actual
}

// scanAndMerge walks the partition once looking for the smallest free block
// of at least need bytes. It is not a pure query: every free buddy pair it
// passes is merged in place before being considered. It returns -1 if no
// block fits.
func (b *Allocator) scanAndMerge(need int) int {
	best, bestSize := -1, 0
	for off := 0; off < len(b.buf); {
		size := b.sizeAt(off)
		if b.mergeable(off, size) {
			b.merge(off, size)
			size <<= 1
		}
		if b.isFree(off) && size >= need && (best < 0 || size <= bestSize) {
			best, bestSize = off, size
		}
		off += size
	}
	return best
}

// Coalesce merges free buddy pairs until a pass over the region finds none.
// It returns the number of merges. Alloc calls it on its own when a request
// cannot otherwise be served.
func (b *Allocator) Coalesce() int {
	b.passes++
	total := 0
	for {
		merged := 0
		for off := 0; off < len(b.buf); {
			size := b.sizeAt(off)
			if b.mergeable(off, size) {
				b.merge(off, size)
				merged++
				off += size << 1
				continue
			}
			off += size
		}
		if merged == 0 {
			break
		}
		total += merged
	}
	b.check()
	return total
}

// split halves the free block at off until it is need bytes, keeping the low
// halves free, and returns the offset of the high-end piece.
func (b *Allocator) split(off, need int) int {
	for size := b.sizeAt(off); size > need; {
		size >>= 1
		b.setBlock(off, size, true)
		off += size
		b.setBlock(off, size, true)
	}
	return off
}

// Alloc returns n zeroed bytes, or nil if n is not positive or no block can
// be found even after coalescing. The slice's capacity is the block size.
func (b *Allocator) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n > len(b.buf) {
		b.failed++
		return nil
	}
	need := b.blockSize(n)

	off := b.scanAndMerge(need)
	if off < 0 {
		b.Coalesce()
		off = b.scanAndMerge(need)
	}
	if off < 0 {
		b.failed++
		return nil
	}

	off = b.split(off, need)
	b.setFree(off, false)
	b.allocs++
	b.check()

	block := b.buf[off : off+need : off+need]
	clear(block)
	return block[:n]
}

// Release marks the block starting at p free. Merging is deferred to later
// allocations. A nil slice is ignored.
func (b *Allocator) Release(p []byte) error {
	if p == nil {
		return nil
	}
	off, ok := mem.Offset(b.buf, p)
	if !ok || off&(b.align-1) != 0 || !b.isBlock(off) {
		return ErrInvalidPointer
	}
	if b.isFree(off) {
		return fmt.Errorf("%w: offset %d", ErrAlreadyFree, off)
	}
	b.setFree(off, true)
	b.releases++
	return nil
}

// Blocks iterates over the current partition in address order.
func (b *Allocator) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for off := 0; off < len(b.buf); {
			size := b.sizeAt(off)
			if !yield(Block{Offset: off, Size: size, Free: b.isFree(off)}) {
				return
			}
			off += size
		}
	}
}

// Offset returns the block offset of p, or -1 if p does not start a block.
func (b *Allocator) Offset(p []byte) int {
	off, ok := mem.Offset(b.buf, p)
	if !ok || off&(b.align-1) != 0 || !b.isBlock(off) {
		return -1
	}
	return off
}

// Cap returns the size of the managed buffer.
func (b *Allocator) Cap() int {
	return len(b.buf)
}

// MinBlockSize returns the smallest block size.
func (b *Allocator) MinBlockSize() int {
	return b.align
}

// Stats walks the partition and returns a snapshot.
func (b *Allocator) Stats() Stats {
	s := Stats{
		Capacity:       len(b.buf),
		MinBlockSize:   b.align,
		Allocs:         b.allocs,
		Releases:       b.releases,
		Failed:         b.failed,
		Merges:         b.merges,
		CoalescePasses: b.passes,
	}
	for blk := range b.Blocks() {
		if !blk.Free {
			s.UsedBlocks++
			continue
		}
		s.FreeBlocks++
		s.FreeBytes += blk.Size
		if blk.Size > s.LargestFree {
			s.LargestFree = blk.Size
		}
	}
	return s
}

func (b *Allocator) String() string {
	s := b.Stats()
	return fmt.Sprintf("Buddy{cap: %d, free: %d in %d blocks, used blocks: %d, largest free: %d}",
		s.Capacity, s.FreeBytes, s.FreeBlocks, s.UsedBlocks, s.LargestFree)
}

// check verifies the partition invariants when built with rawmemdebug.
func (b *Allocator) check() {
	if !assert.Enabled {
		return
	}
	off := 0
	for off < len(b.buf) {
		assert.Thatf(b.isBlock(off), "buddy: no block header at %d", off)
		size := b.sizeAt(off)
		assert.Thatf(size >= b.align && off%size == 0, "buddy: block %d/%d misaligned", off, size)
		for u := off + b.align; u < off+size; u += b.align {
			assert.Thatf(!b.isBlock(u), "buddy: stale header at %d inside block %d/%d", u, off, size)
		}
		off += size
	}
	assert.Thatf(off == len(b.buf), "buddy: partition ends at %d, want %d", off, len(b.buf))
}
