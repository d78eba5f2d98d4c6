package ctxlog

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// Accepted values for the log level.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Accepted values for the log format.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// New creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func New(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := ParseLevel(levelStr)

	var handler slog.Handler
	switch formatStr {
	case FormatJSON:
		handler = slog.NewJSONHandler(outW, &slog.HandlerOptions{Level: level})
	case FormatPretty:
		handler = charmlog.NewWithOptions(outW, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
	default:
		handler = slog.NewTextHandler(outW, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to its slog.Level. Unknown names map to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
