package app

import (
	"io"
	"log/slog"

	"github.com/vk/pipebase/internal/cli"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/task"
)

// newLoggers picks the logger a run derives from and the driver logger
// exposed on ParsedCommand. A caller logger is used as is. Otherwise the
// process default is used, unless --log-level or --log-format asked for a
// logger of their own, and the driver logger is its child named after the
// task.
func newLoggers(caller *slog.Logger, desc *task.Descriptor, parsed *cli.Options, outW io.Writer) (base, driver *slog.Logger) {
	if caller != nil {
		return caller, caller
	}
	base = ctxlog.Default()
	if parsed.LogFlagsSet {
		base = ctxlog.New(parsed.LogLevel, parsed.LogFormat, outW)
	}
	return base, ctxlog.Child(base, desc.DefaultName)
}
