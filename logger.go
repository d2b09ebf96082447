package romgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with romgo-specific context.
// Field names are shared by every operation so that logs can be filtered
// by block, domain count or mode count.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithDir adds the artifact directory to the logger.
func (l *Logger) WithDir(dir string) *Logger {
	return &Logger{Logger: l.Logger.With("dir", dir)}
}

// WithDomains adds a domain count field to the logger.
func (l *Logger) WithDomains(n int) *Logger {
	return &Logger{Logger: l.Logger.With("domains", n)}
}

// WithModes adds the mode selection to the logger.
func (l *Logger) WithModes(modes string) *Logger {
	return &Logger{Logger: l.Logger.With("modes", modes)}
}

// LogBuild logs a basis build.
func (l *Logger) LogBuild(ctx context.Context, dir string, domains int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "basis build failed",
			"dir", dir,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "basis build completed",
		"dir", dir,
		"domains", domains,
		"elapsed", elapsed,
	)
}

// LogLoad logs a basis load.
func (l *Logger) LogLoad(ctx context.Context, dir string, domains int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "basis load failed",
			"dir", dir,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "basis loaded",
		"dir", dir,
		"domains", domains,
	)
}

// LogReconstruct logs a reconstruction.
func (l *Logger) LogReconstruct(ctx context.Context, root string, blocks int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reconstruction failed",
			"root", root,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "reconstruction completed",
		"root", root,
		"blocks", blocks,
		"elapsed", elapsed,
	)
}

// LogProject logs a projection of one or more datasets.
func (l *Logger) LogProject(ctx context.Context, datasets int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "projection failed",
			"datasets", datasets,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "projection completed",
		"datasets", datasets,
		"elapsed", elapsed,
	)
}
