package kclust

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger with kclust-specific context.
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

// NewJSONLogger creates a Logger that writes JSON-formatted logs to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes human-readable text logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithModel adds the model id to the logger.
func (l *Logger) WithModel(id uuid.UUID) *Logger {
	return &Logger{
		Logger: l.Logger.With("model_id", id.String()),
	}
}

// WithK adds a k (cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogIngest logs the outcome of reading a training set.
func (l *Logger) LogIngest(ctx context.Context, rows, skipped, imputed int) {
	l.InfoContext(ctx, "ingest completed",
		"rows", rows,
		"skipped", skipped,
		"imputed", imputed,
	)
}

// LogTrain logs a training run.
func (l *Logger) LogTrain(ctx context.Context, samples, k, iterations int, converged bool, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"samples", samples,
			"k", k,
			"error", err,
		)
		return
	}
	if !converged {
		l.WarnContext(ctx, "training stopped at iteration limit",
			"samples", samples,
			"k", k,
			"iterations", iterations,
			"elapsed", elapsed,
		)
		return
	}
	l.InfoContext(ctx, "training completed",
		"samples", samples,
		"k", k,
		"iterations", iterations,
		"elapsed", elapsed,
	)
}

// LogClassify logs a single classification.
func (l *Logger) LogClassify(ctx context.Context, cluster, members int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "classification failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "classification completed",
			"cluster", cluster,
			"members", members,
		)
	}
}

// LogSave logs an artifact write.
func (l *Logger) LogSave(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "artifact saved",
			"name", name,
			"bytes", size,
		)
	}
}

// LogLoad logs an artifact read.
func (l *Logger) LogLoad(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "artifact loaded",
			"name", name,
		)
	}
}
