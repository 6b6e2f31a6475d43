package rawmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/rawmem/arena"
	"github.com/hupe1980/rawmem/buddy"
	"github.com/hupe1980/rawmem/hashmap"
	"github.com/hupe1980/rawmem/internal/mem"
	"github.com/hupe1980/rawmem/internal/mmap"
	"github.com/hupe1980/rawmem/pool"
	"github.com/hupe1980/rawmem/resource"
)

// Stats is a snapshot of a hunk's layout and counters.
type Stats struct {
	Capacity      int
	Bottom        int // bytes reserved permanently from the start
	Top           int // bytes reserved as scratch from the end
	Available     int
	ScratchDepth  int
	Workers       int
	Pushes        uint64
	ScratchPushes uint64
	Failed        uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("Hunk{cap: %d, bottom: %d, top: %d, avail: %d, scratch: %d, workers: %d, failed: %d}",
		s.Capacity, s.Bottom, s.Top, s.Available, s.ScratchDepth, s.Workers, s.Failed)
}

// Hunk is one large reserved region. Permanent reservations grow up from
// the start, scratch reservations grow down from the end, and the two never
// meet. All methods are safe for concurrent use; the structures carved from
// a hunk are not.
type Hunk struct {
	mu      sync.Mutex
	buf     []byte
	bottom  int
	top     int
	marks   []int
	closed  bool
	mapping *mmap.Mapping
	charged int64
	workers *WorkerSet

	pushes        uint64
	scratchPushes uint64
	failed        uint64

	opts options
	warn rate.Sometimes
}

// Open reserves size bytes of off-heap memory and returns a hunk over it.
// The mapping is charged to the resource controller, if one is configured,
// and released by Close.
func Open(size int, optFns ...Option) (*Hunk, error) {
	o := applyOptions(optFns)
	ctx := context.Background()

	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if !o.controller.TryAcquireMemory(int64(size)) {
		err := fmt.Errorf("rawmem: reserve %d bytes: %w", size, resource.ErrMemoryLimitExceeded)
		o.logger.LogOpen(ctx, size, true, 0, err)
		return nil, err
	}

	m, err := mmap.MapAnon(size)
	if err != nil {
		o.controller.ReleaseMemory(int64(size))
		o.logger.LogOpen(ctx, size, true, 0, err)
		return nil, err
	}

	if o.prefault {
		if err := m.Advise(mmap.AccessWillNeed); err != nil {
			o.logger.WarnContext(ctx, "prefault advice failed", "error", err)
		}
	}

	h := newHunk(m.Bytes(), o)
	h.mapping = m
	h.charged = int64(size)

	if err := h.carveWorkers(); err != nil {
		_ = h.Close()
		o.logger.LogOpen(ctx, size, true, 0, err)
		return nil, err
	}

	o.logger.LogOpen(ctx, size, true, o.numWorkers, nil)
	return h, nil
}

// New returns a hunk over a caller-supplied buffer. Leading bytes are
// skipped so the first reservation is 16-byte aligned.
func New(buf []byte, optFns ...Option) (*Hunk, error) {
	o := applyOptions(optFns)
	ctx := context.Background()

	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidSize)
	}

	h := newHunk(alignStart(buf), o)
	if err := h.carveWorkers(); err != nil {
		o.logger.LogOpen(ctx, len(buf), false, 0, err)
		return nil, err
	}

	o.logger.LogOpen(ctx, len(buf), false, o.numWorkers, nil)
	return h, nil
}

func alignStart(buf []byte) []byte {
	for skip := 0; skip < mem.Alignment && skip < len(buf); skip++ {
		if mem.IsAligned(buf[skip:], mem.Alignment) {
			return buf[skip:len(buf):len(buf)]
		}
	}
	return buf[:0]
}

func newHunk(buf []byte, o options) *Hunk {
	return &Hunk{
		buf:   buf,
		marks: make([]int, 0, o.scratchDepth),
		opts:  o,
		warn:  rate.Sometimes{First: 1, Interval: time.Second},
	}
}

func (h *Hunk) carveWorkers() error {
	if h.opts.numWorkers <= 0 {
		h.workers = newWorkerSet(nil, h.opts)
		return nil
	}

	arenas := make([]*arena.Arena, 0, h.opts.numWorkers)
	for i := 0; i < h.opts.numWorkers; i++ {
		buf, err := h.reserve("worker", h.opts.workerArenaSize)
		if err != nil {
			return err
		}
		arenas = append(arenas, arena.New(buf))
	}
	h.workers = newWorkerSet(arenas, h.opts)
	return nil
}

// available reports the gap between the stacks. Callers hold mu.
func (h *Hunk) available() int {
	return len(h.buf) - h.top - h.bottom
}

// exhausted records a failed reservation. Callers hold mu.
func (h *Hunk) exhausted(kind string, n int) *ErrAllocation {
	h.failed++
	avail := h.available()
	h.opts.metricsCollector.RecordExhausted(kind, n)
	h.warn.Do(func() {
		h.opts.logger.LogExhausted(context.Background(), kind, n, avail)
	})
	return &ErrAllocation{Kind: kind, Size: n, Available: avail}
}

// push carves n bytes from the bottom. Callers hold mu.
func (h *Hunk) push(kind string, n int) ([]byte, error) {
	if h.closed {
		return nil, ErrClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if n >= h.available() {
		return nil, h.exhausted(kind, n)
	}

	size := mem.Align16(n)
	if h.bottom+size >= len(h.buf)-h.top {
		return nil, h.exhausted(kind, n)
	}

	start := h.bottom
	h.bottom += size
	h.pushes++
	clear(h.buf[start : start+size])
	return h.buf[start : start+n : start+size], nil
}

func (h *Hunk) reserve(kind string, n int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf, err := h.push(kind, n)
	if err != nil {
		return nil, err
	}
	h.opts.metricsCollector.RecordPush(n)
	return buf, nil
}

// Push reserves n zeroed bytes that live as long as the hunk. The result is
// 16-byte aligned; nil means the hunk is exhausted or closed.
func (h *Hunk) Push(n int) []byte {
	p, _ := h.reserve("push", n)
	return p
}

// ScratchBegin opens a scratch scope at the current top.
func (h *Hunk) ScratchBegin() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if len(h.marks) == cap(h.marks) {
		return ErrScratchOverflow
	}
	h.marks = append(h.marks, h.top)
	return nil
}

// ScratchPush reserves n zeroed bytes from the top. They are released by the
// ScratchEnd matching the innermost open scope. nil means the hunk is
// exhausted or closed.
func (h *Hunk) ScratchPush(n int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || n < 0 {
		return nil
	}
	if n >= h.available() {
		_ = h.exhausted("scratch", n)
		return nil
	}

	size := mem.Align16(n)
	start := len(h.buf) - h.top - size
	if start <= h.bottom {
		_ = h.exhausted("scratch", n)
		return nil
	}

	h.top += size
	h.scratchPushes++
	clear(h.buf[start : start+size])
	h.opts.metricsCollector.RecordScratch(n)
	return h.buf[start : start+n : start+size]
}

// ScratchEnd closes the innermost scratch scope.
func (h *Hunk) ScratchEnd() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	n := len(h.marks)
	if n == 0 {
		return ErrScratchUnderflow
	}
	h.top = h.marks[n-1]
	h.marks = h.marks[:n-1]
	return nil
}

// NewArena carves an arena of n bytes.
func (h *Hunk) NewArena(n int) (*arena.Arena, error) {
	buf, err := h.reserve("arena", n)
	if err != nil {
		return nil, err
	}
	return arena.New(buf), nil
}

// NewPool carves a pool of numChunks chunks of chunkSize bytes.
func (h *Hunk) NewPool(numChunks, chunkSize int) (*pool.Pool, error) {
	n, err := pool.BufferSize(numChunks, chunkSize)
	if err != nil {
		return nil, fmt.Errorf("rawmem: new pool: %w", err)
	}
	return carve(h, "pool", n, func(buf []byte) (*pool.Pool, error) {
		return pool.New(buf, numChunks, chunkSize)
	})
}

// NewBuddy carves a buddy allocator managing capacity bytes. capacity must be
// a power of two.
func (h *Hunk) NewBuddy(capacity int, opts ...buddy.Option) (*buddy.Allocator, error) {
	return carve(h, "buddy", capacity, func(buf []byte) (*buddy.Allocator, error) {
		return buddy.New(buf, opts...)
	})
}

// NewHashMap carves a hash map of numBuckets buckets holding bucketSize-byte
// values. numBuckets must be a power of two.
func (h *Hunk) NewHashMap(bucketSize, numBuckets int) (*hashmap.Map, error) {
	n, err := hashmap.BufferSize(bucketSize, numBuckets)
	if err != nil {
		return nil, fmt.Errorf("rawmem: new hashmap: %w", err)
	}
	return carve(h, "hashmap", n, func(buf []byte) (*hashmap.Map, error) {
		return hashmap.New(buf, bucketSize)
	})
}

// carve reserves n bytes and builds a structure over them. If the
// constructor rejects its parameters the reservation is rolled back and no
// push is recorded.
func carve[T any](h *Hunk, kind string, n int, build func([]byte) (T, error)) (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var zero T
	mark := h.bottom
	buf, err := h.push(kind, n)
	if err != nil {
		return zero, err
	}

	v, err := build(buf)
	if err != nil {
		h.bottom = mark
		h.pushes--
		return zero, fmt.Errorf("rawmem: new %s: %w", kind, err)
	}
	h.opts.metricsCollector.RecordPush(n)
	return v, nil
}

// Workers returns the worker arenas carved with WithWorkers. After Close the
// set hands out no more workers.
func (h *Hunk) Workers() *WorkerSet {
	return h.workers
}

// Bytes returns the whole region, or nil once closed.
func (h *Hunk) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	return h.buf
}

// Cap returns the usable size of the hunk, or 0 once closed.
func (h *Hunk) Cap() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buf)
}

// Available returns the bytes left between the permanent and scratch stacks.
func (h *Hunk) Available() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.available()
}

// Stats returns a snapshot of the hunk's layout and counters.
func (h *Hunk) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Stats{
		Capacity:      len(h.buf),
		Bottom:        h.bottom,
		Top:           h.top,
		Available:     h.available(),
		ScratchDepth:  len(h.marks),
		Workers:       h.workers.Len(),
		Pushes:        h.pushes,
		ScratchPushes: h.scratchPushes,
		Failed:        h.failed,
	}
}

// Close releases the hunk. Memory obtained from Open is unmapped and
// returned to the resource controller; every slice handed out becomes
// invalid, including the arenas of workers still checked out. Close is
// idempotent.
func (h *Hunk) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	stats := Stats{
		Capacity:      len(h.buf),
		Bottom:        h.bottom,
		Top:           h.top,
		Pushes:        h.pushes,
		ScratchPushes: h.scratchPushes,
		Failed:        h.failed,
	}
	m := h.mapping
	h.mapping = nil
	h.buf = nil
	h.bottom, h.top = 0, 0
	h.marks = h.marks[:0]
	h.workers.close()
	h.mu.Unlock()

	var err error
	if m != nil {
		err = m.Close()
		h.opts.controller.ReleaseMemory(h.charged)
	}
	h.opts.logger.LogClose(context.Background(), stats, err)
	return err
}
