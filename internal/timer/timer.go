// Package timer records the start and end of an operation into a task's
// metadata store.
//
// Time is the single primitive. It writes <op>StartUtc, <op>StartCpuTime,
// <op>StartUserTime and <op>StartSystemTime before the work runs and the
// matching End entries on every exit path, including a returned error or a
// panic, before the failure propagates. Timings may nest; each operation
// name owns its own keys.
package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/metadata"
)

// Key prefixes written for every operation.
const (
	PrefixStart = "Start"
	PrefixEnd   = "End"
)

// Sample is one reading of the process clocks.
type Sample struct {
	Wall time.Time
	// CPU, User and System are seconds of processor time used by the
	// process so far. CPU is User plus System.
	CPU    float64
	User   float64
	System float64
	// MaxResidentSet is the peak resident set size as reported by the
	// platform, or 0 when it is not available.
	MaxResidentSet int64
}

// Now takes a Sample of the process clocks.
func Now() Sample {
	s := readUsage()
	s.Wall = time.Now().UTC()
	return s
}

// Time runs fn as operation name and records its timing into store.
func Time(ctx context.Context, store *metadata.Store, name string, fn func() error) error {
	logger := ctxlog.FromContext(ctx)

	start := Now()
	write(logger, store, name+PrefixStart, start)
	defer func() {
		end := Now()
		write(logger, store, name+PrefixEnd, end)
		logger.Debug("Timed operation finished.", "op", name, "cpu_seconds", end.CPU-start.CPU, "wall", end.Wall.Sub(start.Wall))
	}()

	return fn()
}

// Call is Time for work that also returns a value.
func Call[T any](ctx context.Context, store *metadata.Store, name string, fn func() (T, error)) (T, error) {
	var out T
	err := Time(ctx, store, name, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

type entry struct {
	key   string
	value any
}

// write stores one sample. Failures are logged and never change the outcome
// of the timed work.
func write(logger *slog.Logger, store *metadata.Store, prefix string, s Sample) {
	entries := []entry{
		{"Utc", s.Wall.Format(time.RFC3339Nano)},
		{"CpuTime", s.CPU},
		{"UserTime", s.User},
		{"SystemTime", s.System},
	}
	if s.MaxResidentSet > 0 {
		entries = append(entries, entry{"MaxResidentSet", s.MaxResidentSet})
	}

	for _, e := range entries {
		if err := store.Set(prefix+e.key, e.value); err != nil {
			logger.Warn("Failed to record timing entry.", "key", prefix+e.key, "error", err)
		}
	}
}
