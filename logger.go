package rawmem

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with rawmem-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithKind adds a kind field naming the carved structure.
func (l *Logger) WithKind(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", kind),
	}
}

// WithWorker adds a worker field to the logger.
func (l *Logger) WithWorker(id int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", id),
	}
}

// LogOpen logs the creation of a hunk.
func (l *Logger) LogOpen(ctx context.Context, size int, mapped bool, workers int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "hunk open failed",
			"size", size,
			"mapped", mapped,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "hunk opened",
			"size", size,
			"mapped", mapped,
			"workers", workers,
		)
	}
}

// LogClose logs the release of a hunk.
func (l *Logger) LogClose(ctx context.Context, stats Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "hunk close failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "hunk closed",
			"bottom", stats.Bottom,
			"top", stats.Top,
			"failed", stats.Failed,
		)
	}
}

// LogExhausted logs a reservation the hunk could not satisfy.
func (l *Logger) LogExhausted(ctx context.Context, kind string, size, available int) {
	l.WarnContext(ctx, "hunk exhausted",
		"kind", kind,
		"size", size,
		"available", available,
	)
}
