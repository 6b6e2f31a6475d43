// Package rawmem provides allocators and containers that work on
// caller-supplied memory.
//
// # Building Blocks
//
// The leaf packages never allocate on the Go heap after construction and
// never log:
//
//   - arena: bump allocator with LIFO pop and nested scratch scopes
//   - pool: fixed-size chunk allocator with O(1) alloc and free
//   - buddy: power-of-two block allocator with lazy coalescing
//   - hashmap: fixed-capacity open-addressing table keyed by uint64
//
// # Hunk
//
// A Hunk is one large reservation everything else is carved from:
//
//	h, err := rawmem.Open(64<<20, rawmem.WithWorkers(4, 1<<20))
//	if err != nil { ... }
//	defer h.Close()
//
//	ids, _ := h.NewHashMap(8, 1024)     // permanent
//	nodes, _ := h.NewPool(4096, 64)     // permanent
//
//	h.ScratchBegin()
//	tmp := h.ScratchPush(32 << 10)      // released by ScratchEnd
//	h.ScratchEnd()
//
// Permanent reservations grow up from the start of the hunk and scratch
// reservations grow down from the end. Open maps anonymous memory outside
// the Go heap; New wraps a buffer the caller already owns.
//
// # Worker Arenas
//
// WithWorkers carves private arenas for goroutines. A worker is checked out
// with Acquire, used without locking, and returned with Release:
//
//	w, err := h.Workers().Acquire(ctx)
//	if err != nil { ... }
//	defer w.Release()
//
//	w.Begin()
//	buf := w.Push(4096)
//	w.End()
//
// # Observability
//
// Lifecycle events and exhaustion warnings are logged through Logger
// (log/slog). Exhaustion warnings are throttled to one per second. Counters
// flow into a MetricsCollector; package prometheus exports them.
package rawmem
