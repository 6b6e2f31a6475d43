package rawmem

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/rawmem/arena"
)

// WorkerSet hands out private scratch arenas to goroutines. A checked-out
// Worker belongs to one goroutine until Release, so its arena needs no
// locking.
type WorkerSet struct {
	sem     *semaphore.Weighted
	mu      sync.Mutex
	idle    []*Worker
	workers []*Worker
	closed  bool
	opts    options
}

// Worker is a private scratch arena checked out of a WorkerSet. Begin, Push
// and End manage nested scratch scopes on it.
type Worker struct {
	*arena.Scratch
	id   int
	set  *WorkerSet
	held bool
}

func newWorkerSet(arenas []*arena.Arena, o options) *WorkerSet {
	s := &WorkerSet{
		sem:     semaphore.NewWeighted(int64(len(arenas))),
		workers: make([]*Worker, len(arenas)),
		idle:    make([]*Worker, 0, len(arenas)),
		opts:    o,
	}
	for i, a := range arenas {
		w := &Worker{
			Scratch: arena.NewScratch(a, o.scratchDepth),
			id:      i,
			set:     s,
		}
		s.workers[i] = w
	}
	// Hand out worker 0 first.
	for i := len(s.workers) - 1; i >= 0; i-- {
		s.idle = append(s.idle, s.workers[i])
	}
	return s
}

// Acquire checks out a worker arena, blocking until one is free or ctx is
// done. The resource controller's worker slots are honoured as well. Once the
// hunk is closed Acquire returns ErrClosed.
func (s *WorkerSet) Acquire(ctx context.Context) (*Worker, error) {
	if s == nil || len(s.workers) == 0 {
		return nil, ErrNoWorkers
	}
	if s.isClosed() {
		return nil, ErrClosed
	}

	start := time.Now()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := s.opts.controller.AcquireWorker(ctx); err != nil {
		s.sem.Release(1)
		return nil, err
	}

	w, ok := s.pop()
	if !ok {
		s.opts.controller.ReleaseWorker()
		s.sem.Release(1)
		return nil, ErrClosed
	}
	s.opts.metricsCollector.RecordWorkerAcquire(time.Since(start))
	return w, nil
}

// TryAcquire checks out a worker arena without blocking. It fails once the
// hunk is closed.
func (s *WorkerSet) TryAcquire() (*Worker, bool) {
	if s == nil || len(s.workers) == 0 || s.isClosed() {
		return nil, false
	}
	if !s.sem.TryAcquire(1) {
		return nil, false
	}
	if !s.opts.controller.TryAcquireWorker() {
		s.sem.Release(1)
		return nil, false
	}

	w, ok := s.pop()
	if !ok {
		s.opts.controller.ReleaseWorker()
		s.sem.Release(1)
		return nil, false
	}
	s.opts.metricsCollector.RecordWorkerAcquire(0)
	return w, true
}

// pop takes an idle worker. It fails if the set was closed while the caller
// waited for a slot.
func (s *WorkerSet) pop() (*Worker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}
	n := len(s.idle)
	w := s.idle[n-1]
	s.idle = s.idle[:n-1]
	w.held = true
	return w, true
}

func (s *WorkerSet) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close stops the set from handing out workers. Arenas of workers still
// checked out are detached so a late Push fails instead of touching freed
// memory.
func (s *WorkerSet) close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, w := range s.workers {
		w.Reset()
		w.Arena().Detach()
	}
}

// Len returns the number of worker arenas.
func (s *WorkerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.workers)
}

// Idle returns the number of worker arenas not checked out.
func (s *WorkerSet) Idle() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.idle)
}

// ID returns the worker's index within its set.
func (w *Worker) ID() int {
	return w.id
}

// Release drops every open scope, clears the arena and returns the worker
// to its set. Releasing twice is a no-op.
func (w *Worker) Release() {
	s := w.set

	s.mu.Lock()
	if !w.held {
		s.mu.Unlock()
		return
	}
	w.held = false
	w.Reset()
	s.idle = append(s.idle, w)
	s.mu.Unlock()

	s.opts.controller.ReleaseWorker()
	s.sem.Release(1)
}
