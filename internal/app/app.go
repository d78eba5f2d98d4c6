package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/vk/pipebase/internal/cli"
	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/dataref"
	"github.com/vk/pipebase/internal/hcl"
	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/internal/repository"
	"github.com/vk/pipebase/internal/task"
)

// CmdLineTask is the run contract of a task driven from the command line:
// it is called once per data reference.
type CmdLineTask interface {
	task.Instance
	Run(ctx context.Context, ref *dataref.Ref) (any, error)
}

// ParsedCommand is everything the driver derived from the argument list.
type ParsedCommand struct {
	RunID      string
	Tag        string
	InputRoot  string
	CalibRoot  string
	OutputRoot string
	// Log is the caller's logger when one was supplied, the same handle.
	Log      *slog.Logger
	Config   *config.Config
	DataRefs []*dataref.Ref
}

// Result is the outcome of a successful ParseAndRun.
type Result struct {
	Task      CmdLineTask
	ParsedCmd *ParsedCommand
	// Results holds one entry per data reference, in order.
	Results []any
}

// Option customizes ParseAndRun.
type Option func(*driverOptions)

type driverOptions struct {
	config   *config.Config
	logger   *slog.Logger
	opener   repository.Opener
	registry *registry.Registry
	output   io.Writer
	logOut   io.Writer
}

// WithConfig runs the task on cfg instead of the descriptor defaults.
// Command-line overrides are applied to cfg itself.
func WithConfig(cfg *config.Config) Option {
	return func(o *driverOptions) { o.config = cfg }
}

// WithLogger makes the driver and the task log through logger. The
// --log-level and --log-format flags are then ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *driverOptions) { o.logger = logger }
}

// WithRepositoryOpener replaces repository.Open.
func WithRepositoryOpener(opener repository.Opener) Option {
	return func(o *driverOptions) { o.opener = opener }
}

// WithRegistry sets the registry used to resolve retargets by name.
func WithRegistry(reg *registry.Registry) Option {
	return func(o *driverOptions) { o.registry = reg }
}

// WithOutput sets where usage, --show-config and --show-metadata go.
func WithOutput(w io.Writer) Option {
	return func(o *driverOptions) { o.output = w }
}

// WithLogOutput sets where a logger built from the log flags writes.
func WithLogOutput(w io.Writer) Option {
	return func(o *driverOptions) { o.logOut = w }
}

// ParseAndRun parses args for the command-line task desc, builds the task
// and runs it once per data reference, in order. A failing run aborts the
// loop and no results are returned. When help was requested both the result
// and the error are nil.
func ParseAndRun(ctx context.Context, desc *task.Descriptor, args []string, opts ...Option) (*Result, error) {
	o := driverOptions{
		opener: repository.Open,
		output: os.Stdout,
		logOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if desc == nil {
		return nil, &DriverError{Stage: StageArguments, Err: fmt.Errorf("no task descriptor")}
	}

	// 1. Arguments and environment roots.
	roots, err := cli.LoadRoots()
	if err != nil {
		return nil, &DriverError{Stage: StageArguments, Err: err}
	}
	parsed, shouldExit, err := cli.Parse(desc.DefaultName, args, roots, o.output)
	if err != nil {
		return nil, &DriverError{Stage: StageArguments, Err: err}
	}
	if shouldExit {
		return nil, nil
	}

	// 2. Logger.
	baseLog, logger := newLoggers(o.logger, desc, parsed, o.logOut)
	runID := uuid.NewString()
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Driver started.", "descriptor", desc.Name, "run_id", runID)

	cmd := &ParsedCommand{
		RunID:      runID,
		Tag:        parsed.Tag,
		InputRoot:  parsed.InputRoot,
		CalibRoot:  parsed.CalibRoot,
		OutputRoot: parsed.OutputRoot,
		Log:        logger,
	}

	// 3. Config and overrides, in command-line order.
	cfg := o.config
	if cfg == nil {
		cfg = desc.NewConfig()
		if cfg == nil {
			return nil, &DriverError{Stage: StageConfig, Err: fmt.Errorf("task %q provides no default config", desc.Name)}
		}
	}
	if err := applyOverrides(ctx, cfg, parsed.Overrides, o.registry.Resolver()); err != nil {
		return nil, &DriverError{Stage: StageConfig, Err: err}
	}
	cmd.Config = cfg

	// 4. Data references.
	if cmd.DataRefs, err = resolveDataRefs(ctx, o.opener, parsed); err != nil {
		return nil, err
	}

	if parsed.ShowConfig {
		if err := hcl.Render(cfg, o.output); err != nil {
			return nil, &DriverError{Stage: StageOutput, Err: err}
		}
	}

	// 5. Build the task.
	inst, err := task.New(ctx, desc, task.WithConfig(cfg), task.WithLogger(baseLog.With("run_id", runID)))
	if err != nil {
		return nil, &DriverError{Stage: StageConstruction, Err: err}
	}
	runner, ok := inst.(CmdLineTask)
	if !ok {
		return nil, &DriverError{Stage: StageConstruction, Err: fmt.Errorf("task %q (%T) cannot run on data references", desc.Name, inst)}
	}

	// 6. Run once per reference.
	logger.Info("🚀 Starting task run.", "descriptor", desc.Name, "data_refs", len(cmd.DataRefs))
	results := make([]any, 0, len(cmd.DataRefs))
	for _, ref := range cmd.DataRefs {
		logger.Debug("▶️ Running on data reference.", "data_id", ref.String())
		res, err := runner.Run(ctx, ref)
		if err != nil {
			logger.Error("Task run failed.", "data_id", ref.String(), "error", err)
			return nil, &DriverError{Stage: StageRun, Err: fmt.Errorf("data id %s: %w", ref, err)}
		}
		results = append(results, res)
		logger.Debug("✅ Data reference done.", "data_id", ref.String())
	}
	logger.Info("🏁 Task run finished.", "descriptor", desc.Name, "results", len(results))

	if parsed.ShowMetadata {
		if err := writeMetadata(o.output, inst.Base()); err != nil {
			return nil, &DriverError{Stage: StageOutput, Err: err}
		}
	}

	return &Result{Task: runner, ParsedCmd: cmd, Results: results}, nil
}

func applyOverrides(ctx context.Context, cfg *config.Config, overrides []cli.Override, resolve config.TargetResolver) error {
	for _, ov := range overrides {
		var src config.Source
		if ov.File != "" {
			src = hcl.FileSource{Path: ov.File}
		} else {
			a, err := hcl.ParseAssignment(ov.Assignment)
			if err != nil {
				return err
			}
			src = a
		}
		if err := src.Apply(ctx, cfg, resolve); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

// resolveDataRefs opens the repository only when there is something to
// resolve, so tasks without --id run without one.
func resolveDataRefs(ctx context.Context, opener repository.Opener, parsed *cli.Options) ([]*dataref.Ref, error) {
	if len(parsed.IDGroups) == 0 {
		return nil, nil
	}
	logger := ctxlog.FromContext(ctx)

	repo, err := opener(ctx, parsed.InputRoot)
	if err != nil {
		return nil, &DriverError{Stage: StageRepository, Err: err}
	}

	var refs []*dataref.Ref
	for _, group := range parsed.IDGroups {
		tmpl, err := dataref.ParseGroup(group, repo.Schema())
		if err != nil {
			return nil, &DriverError{Stage: StageDataID, Err: err}
		}
		matched, err := repo.Resolve(ctx, tmpl)
		if err != nil {
			return nil, &DriverError{Stage: StageDataID, Err: err}
		}
		if len(matched) == 0 {
			logger.Warn("No data matches id selector.", "selector", tmpl.String())
		}
		refs = append(refs, matched...)
	}
	return refs, nil
}

func writeMetadata(w io.Writer, t *task.Task) error {
	data, err := json.MarshalIndent(t.FullMetadata(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
