package rawmem

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("fields", func(t *testing.T) {
		logger, out := captureLogger(slog.LevelDebug)
		logger.WithKind("pool").WithWorker(3).LogExhausted(ctx, "pool", 128, 64)

		logs := out.String()
		assert.Contains(t, logs, "level=WARN")
		assert.Contains(t, logs, "worker=3")
		assert.Contains(t, logs, "size=128")
		assert.Contains(t, logs, "available=64")
	})

	t.Run("errors log at error level", func(t *testing.T) {
		logger, out := captureLogger(slog.LevelInfo)
		logger.LogClose(ctx, Stats{}, errors.New("munmap failed"))
		assert.Contains(t, out.String(), "level=ERROR")
		assert.Contains(t, out.String(), "munmap failed")
	})

	t.Run("noop", func(t *testing.T) {
		logger := NoopLogger()
		assert.False(t, logger.Enabled(ctx, slog.LevelError))
		logger.LogOpen(ctx, 1, false, 0, nil)
	})

	t.Run("constructors", func(t *testing.T) {
		assert.NotNil(t, NewLogger(nil))
		assert.True(t, NewJSONLogger(slog.LevelDebug).Enabled(ctx, slog.LevelDebug))
		assert.False(t, NewTextLogger(slog.LevelWarn).Enabled(ctx, slog.LevelInfo))
	})
}

func TestOptions_Defaults(t *testing.T) {
	o := applyOptions([]Option{nil, WithLogger(nil), WithMetricsCollector(nil), WithScratchDepth(-1), WithWorkers(2, 0)})

	assert.NotNil(t, o.logger)
	assert.Equal(t, NoopMetricsCollector{}, o.metricsCollector)
	assert.Equal(t, 256, o.scratchDepth)
	assert.Equal(t, 2, o.numWorkers)
	assert.Equal(t, DefaultWorkerArenaSize, o.workerArenaSize)
	assert.Nil(t, o.controller)
}
