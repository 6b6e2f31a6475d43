package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/rawmem"
)

var (
	_ rawmem.MetricsCollector = (*MetricsCollector)(nil)
	_ prom.Collector          = (*MetricsCollector)(nil)
	_ prom.Collector          = (*HunkCollector)(nil)
)

// MetricsCollector implements rawmem.MetricsCollector with Prometheus
// counters and a histogram. It is itself a prom.Collector.
type MetricsCollector struct {
	pushes       prom.Counter
	pushBytes    prom.Counter
	scratch      prom.Counter
	scratchBytes prom.Counter
	exhausted    *prom.CounterVec
	workerWait   prom.Histogram
}

// NewMetricsCollector creates a collector whose metrics live under namespace.
func NewMetricsCollector(namespace string) *MetricsCollector {
	return &MetricsCollector{
		pushes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "hunk",
			Name:      "pushes_total",
			Help:      "Permanent reservations served.",
		}),
		pushBytes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "hunk",
			Name:      "push_bytes_total",
			Help:      "Bytes requested by permanent reservations.",
		}),
		scratch: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "hunk",
			Name:      "scratch_pushes_total",
			Help:      "Scratch reservations served.",
		}),
		scratchBytes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "hunk",
			Name:      "scratch_bytes_total",
			Help:      "Bytes requested by scratch reservations.",
		}),
		exhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "hunk",
			Name:      "exhausted_total",
			Help:      "Reservations that did not fit, by kind.",
		}, []string{"kind"}),
		workerWait: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workers",
			Name:      "acquire_wait_seconds",
			Help:      "Time spent waiting for a worker arena.",
			Buckets:   prom.ExponentialBuckets(1e-6, 10, 7),
		}),
	}
}

// RecordPush implements rawmem.MetricsCollector.
func (m *MetricsCollector) RecordPush(bytes int) {
	m.pushes.Inc()
	m.pushBytes.Add(float64(bytes))
}

// RecordScratch implements rawmem.MetricsCollector.
func (m *MetricsCollector) RecordScratch(bytes int) {
	m.scratch.Inc()
	m.scratchBytes.Add(float64(bytes))
}

// RecordExhausted implements rawmem.MetricsCollector.
func (m *MetricsCollector) RecordExhausted(kind string, _ int) {
	m.exhausted.WithLabelValues(kind).Inc()
}

// RecordWorkerAcquire implements rawmem.MetricsCollector.
func (m *MetricsCollector) RecordWorkerAcquire(wait time.Duration) {
	m.workerWait.Observe(wait.Seconds())
}

// Describe implements prom.Collector.
func (m *MetricsCollector) Describe(ch chan<- *prom.Desc) {
	m.pushes.Describe(ch)
	m.pushBytes.Describe(ch)
	m.scratch.Describe(ch)
	m.scratchBytes.Describe(ch)
	m.exhausted.Describe(ch)
	m.workerWait.Describe(ch)
}

// Collect implements prom.Collector.
func (m *MetricsCollector) Collect(ch chan<- prom.Metric) {
	m.pushes.Collect(ch)
	m.pushBytes.Collect(ch)
	m.scratch.Collect(ch)
	m.scratchBytes.Collect(ch)
	m.exhausted.Collect(ch)
	m.workerWait.Collect(ch)
}

// HunkCollector reports a hunk's layout as gauges, read on every scrape.
type HunkCollector struct {
	hunk *rawmem.Hunk

	capacity     *prom.Desc
	bottom       *prom.Desc
	top          *prom.Desc
	available    *prom.Desc
	scratchDepth *prom.Desc
	workers      *prom.Desc
	idleWorkers  *prom.Desc
}

// NewHunkCollector creates a collector for h. constLabels distinguish
// several hunks registered with one registry.
func NewHunkCollector(namespace string, h *rawmem.Hunk, constLabels prom.Labels) *HunkCollector {
	desc := func(name, help string) *prom.Desc {
		return prom.NewDesc(prom.BuildFQName(namespace, "hunk", name), help, nil, constLabels)
	}
	return &HunkCollector{
		hunk:         h,
		capacity:     desc("capacity_bytes", "Usable size of the hunk."),
		bottom:       desc("permanent_bytes", "Bytes reserved permanently."),
		top:          desc("scratch_bytes", "Bytes reserved by open scratch scopes."),
		available:    desc("available_bytes", "Bytes left between the permanent and scratch stacks."),
		scratchDepth: desc("scratch_depth", "Open scratch scopes."),
		workers:      desc("workers", "Worker arenas carved from the hunk."),
		idleWorkers:  desc("idle_workers", "Worker arenas not checked out."),
	}
}

// Describe implements prom.Collector.
func (c *HunkCollector) Describe(ch chan<- *prom.Desc) {
	ch <- c.capacity
	ch <- c.bottom
	ch <- c.top
	ch <- c.available
	ch <- c.scratchDepth
	ch <- c.workers
	ch <- c.idleWorkers
}

// Collect implements prom.Collector.
func (c *HunkCollector) Collect(ch chan<- prom.Metric) {
	s := c.hunk.Stats()
	gauge := func(d *prom.Desc, v int) {
		ch <- prom.MustNewConstMetric(d, prom.GaugeValue, float64(v))
	}
	gauge(c.capacity, s.Capacity)
	gauge(c.bottom, s.Bottom)
	gauge(c.top, s.Top)
	gauge(c.available, s.Available)
	gauge(c.scratchDepth, s.ScratchDepth)
	gauge(c.workers, s.Workers)
	gauge(c.idleWorkers, c.hunk.Workers().Idle())
}
