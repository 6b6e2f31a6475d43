package pool

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/rawmem/internal/assert"
	"github.com/hupe1980/rawmem/internal/mem"
)

var (
	// ErrInvalidChunkSize is returned when chunkSize is not positive.
	ErrInvalidChunkSize = errors.New("pool: chunk size must be positive")
	// ErrInvalidChunkCount is returned when numChunks is not positive.
	ErrInvalidChunkCount = errors.New("pool: chunk count must be positive")
	// ErrBufferTooSmall is returned when the buffer cannot hold every chunk.
	ErrBufferTooSmall = errors.New("pool: buffer too small")
	// ErrTooLarge is returned when the pool size does not fit in an int.
	ErrTooLarge = errors.New("pool: pool size overflows int")
)

// Stats tracks pool usage.
type Stats struct {
	NumChunks int    // total chunks
	ChunkSize int    // aligned chunk size
	InUse     int    // chunks currently handed out
	Allocs    uint64 // successful allocations
	Frees     uint64 // accepted frees
	Failed    uint64 // allocations rejected because the pool was empty
	Ignored   uint64 // frees ignored as invalid or double
}

// Pool is a fixed-size chunk allocator.
type Pool struct {
	buf       []byte
	itemSize  int
	chunkSize int
	numChunks int

	free []int
	live *bitset.BitSet

	allocs  uint64
	frees   uint64
	failed  uint64
	ignored uint64
}

// BufferSize returns the number of bytes New needs for numChunks chunks of
// chunkSize bytes.
func BufferSize(numChunks, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		return 0, ErrInvalidChunkSize
	}
	if numChunks <= 0 {
		return 0, ErrInvalidChunkCount
	}
	if chunkSize > mem.MaxAlign16 {
		return 0, fmt.Errorf("%w: chunk size %d", ErrTooLarge, chunkSize)
	}
	n, ok := mem.Mul(numChunks, mem.Align16(chunkSize))
	if !ok {
		return 0, fmt.Errorf("%w: %d chunks of %d bytes", ErrTooLarge, numChunks, chunkSize)
	}
	return n, nil
}

// New creates a pool of numChunks chunks of chunkSize bytes over buf. The
// chunk size is rounded up to a multiple of 16; buf must hold
// BufferSize(numChunks, chunkSize) bytes.
func New(buf []byte, numChunks, chunkSize int) (*Pool, error) {
	need, err := BufferSize(numChunks, chunkSize)
	if err != nil {
		return nil, err
	}
	if len(buf) < need {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrBufferTooSmall, need, len(buf))
	}

	p := &Pool{
		buf:       buf[:need:need],
		itemSize:  chunkSize,
		chunkSize: mem.Align16(chunkSize),
		numChunks: numChunks,
		free:      make([]int, 0, numChunks),
		live:      bitset.New(uint(numChunks)), //nolint:gosec // numChunks > 0
	}
	p.FreeAll()
	return p, nil
}

// Alloc returns a zeroed chunk, or nil if every chunk is in use. The slice has
// the requested chunk length and the aligned chunk capacity.
func (p *Pool) Alloc() []byte {
	n := len(p.free)
	if n == 0 {
		p.failed++
		return nil
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]

	assert.Thatf(!p.live.Test(uint(idx)), "pool chunk %d on free stack while live", idx) //nolint:gosec // idx >= 0
	p.live.Set(uint(idx))                                                                //nolint:gosec // idx >= 0
	p.allocs++

	off := idx * p.chunkSize
	chunk := p.buf[off : off+p.chunkSize : off+p.chunkSize]
	clear(chunk)
	return chunk[:p.itemSize]
}

// Free returns chunk to the pool. Invalid and repeated frees are ignored.
func (p *Pool) Free(chunk []byte) {
	if chunk == nil {
		return
	}
	off, ok := mem.Offset(p.buf, chunk)
	if !ok || off%p.chunkSize != 0 {
		p.ignored++
		return
	}
	idx := off / p.chunkSize
	if !p.live.Test(uint(idx)) { //nolint:gosec // idx >= 0
		p.ignored++
		return
	}
	p.live.Clear(uint(idx)) //nolint:gosec // idx >= 0
	p.free = append(p.free, idx)
	p.frees++
}

// FreeAll marks every chunk free, discarding all live chunks. The next Alloc
// returns the highest-index chunk.
func (p *Pool) FreeAll() {
	p.free = p.free[:0]
	for i := 0; i < p.numChunks; i++ {
		p.free = append(p.free, i)
	}
	p.live.ClearAll()
}

// Owns reports whether chunk starts on a chunk boundary inside the pool.
func (p *Pool) Owns(chunk []byte) bool {
	off, ok := mem.Offset(p.buf, chunk)
	return ok && off%p.chunkSize == 0
}

// ChunkSize returns the aligned chunk size.
func (p *Pool) ChunkSize() int {
	return p.chunkSize
}

// NumChunks returns the total number of chunks.
func (p *Pool) NumChunks() int {
	return p.numChunks
}

// Len returns the number of free chunks.
func (p *Pool) Len() int {
	return len(p.free)
}

// InUse returns the number of chunks handed out.
func (p *Pool) InUse() int {
	return p.numChunks - len(p.free)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		NumChunks: p.numChunks,
		ChunkSize: p.chunkSize,
		InUse:     p.InUse(),
		Allocs:    p.allocs,
		Frees:     p.frees,
		Failed:    p.failed,
		Ignored:   p.ignored,
	}
}

func (p *Pool) String() string {
	return fmt.Sprintf("Pool{chunks: %d, chunk: %dB, in use: %d, failed: %d}",
		p.numChunks, p.chunkSize, p.InUse(), p.failed)
}
