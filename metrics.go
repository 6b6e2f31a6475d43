package rawmem

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting hunk metrics.
// Implement this interface to integrate with monitoring systems; package
// prometheus provides a ready-made adapter.
type MetricsCollector interface {
	// RecordPush is called after each successful permanent reservation.
	RecordPush(bytes int)

	// RecordScratch is called after each successful scratch reservation.
	RecordScratch(bytes int)

	// RecordExhausted is called when a reservation of kind fails for lack
	// of space.
	RecordExhausted(kind string, bytes int)

	// RecordWorkerAcquire is called after a worker arena is checked out.
	// wait is the time spent blocked.
	RecordWorkerAcquire(wait time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPush(int)                    {}
func (NoopMetricsCollector) RecordScratch(int)                 {}
func (NoopMetricsCollector) RecordExhausted(string, int)       {}
func (NoopMetricsCollector) RecordWorkerAcquire(time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PushCount          atomic.Int64
	PushBytes          atomic.Int64
	ScratchCount       atomic.Int64
	ScratchBytes       atomic.Int64
	ExhaustedCount     atomic.Int64
	WorkerAcquireCount atomic.Int64
	WorkerWaitNanos    atomic.Int64
}

// RecordPush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPush(bytes int) {
	b.PushCount.Add(1)
	b.PushBytes.Add(int64(bytes))
}

// RecordScratch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScratch(bytes int) {
	b.ScratchCount.Add(1)
	b.ScratchBytes.Add(int64(bytes))
}

// RecordExhausted implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExhausted(_ string, _ int) {
	b.ExhaustedCount.Add(1)
}

// RecordWorkerAcquire implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWorkerAcquire(wait time.Duration) {
	b.WorkerAcquireCount.Add(1)
	b.WorkerWaitNanos.Add(wait.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PushCount:          b.PushCount.Load(),
		PushBytes:          b.PushBytes.Load(),
		ScratchCount:       b.ScratchCount.Load(),
		ScratchBytes:       b.ScratchBytes.Load(),
		ExhaustedCount:     b.ExhaustedCount.Load(),
		WorkerAcquireCount: b.WorkerAcquireCount.Load(),
		WorkerAvgWaitNanos: b.getAvgWorkerWaitNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgWorkerWaitNanos() int64 {
	count := b.WorkerAcquireCount.Load()
	if count == 0 {
		return 0
	}
	return b.WorkerWaitNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	PushCount          int64
	PushBytes          int64
	ScratchCount       int64
	ScratchBytes       int64
	ExhaustedCount     int64
	WorkerAcquireCount int64
	WorkerAvgWaitNanos int64
}
