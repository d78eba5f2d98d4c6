// Package ctxlog provides a context key for safely passing a slog.Logger
// instance through context.Context, together with the process-wide default
// logger used when nothing more specific was supplied.
package ctxlog

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// loggerKey is the key for the slog.Logger in a context.Context.
var loggerKey = key{}

var (
	defaultOnce   sync.Once
	defaultLogger *slog.Logger
)

// Init installs the process-wide default logger. Only the first call has an
// effect; it reports whether the logger was installed. Call it once from main
// before any task is constructed.
func Init(logger *slog.Logger) bool {
	installed := false
	defaultOnce.Do(func() {
		defaultLogger = logger
		installed = true
	})
	return installed
}

// Default returns the process-wide default logger. If Init was never called
// an info-level text logger on stderr is installed on first use.
func Default() *slog.Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(LevelInfo, FormatText, os.Stderr)
	})
	return defaultLogger
}

// Child returns a logger derived from parent that tags every record with the
// given task name.
func Child(parent *slog.Logger, name string) *slog.Logger {
	if parent == nil {
		parent = Default()
	}
	return parent.With("task", name)
}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. If no logger is
// found, it returns the process-wide default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
