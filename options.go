package rawmem

import (
	"log/slog"

	"github.com/hupe1980/rawmem/arena"
	"github.com/hupe1980/rawmem/resource"
)

// DefaultWorkerArenaSize is the per-worker arena size used when WithWorkers
// is given a non-positive size.
const DefaultWorkerArenaSize = 16 << 20

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller
	scratchDepth     int
	numWorkers       int
	workerArenaSize  int
	prefault         bool
}

// Option configures Open and New.
type Option func(*options)

// WithLogger sets the logger used for lifecycle events and exhaustion
// warnings. A nil logger disables logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics sink. A nil collector disables metrics.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController charges the mapping created by Open, and every
// checked-out worker arena, against c.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithScratchDepth bounds the number of nested scratch scopes on the hunk
// and on every worker arena. Non-positive values select the default of 256.
func WithScratchDepth(depth int) Option {
	return func(o *options) {
		if depth <= 0 {
			depth = arena.DefaultScratchDepth
		}
		o.scratchDepth = depth
	}
}

// WithWorkers carves n private worker arenas of arenaSize bytes each from the
// bottom of the hunk when it is created. A non-positive arenaSize selects
// DefaultWorkerArenaSize.
func WithWorkers(n, arenaSize int) Option {
	return func(o *options) {
		if arenaSize <= 0 {
			arenaSize = DefaultWorkerArenaSize
		}
		o.numWorkers = n
		o.workerArenaSize = arenaSize
	}
}

// WithPrefault asks the kernel to populate the mapping created by Open
// up front instead of on first touch.
func WithPrefault(enabled bool) Option {
	return func(o *options) {
		o.prefault = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		scratchDepth:     arena.DefaultScratchDepth,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
