package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/metadata"
	"github.com/vk/pipebase/internal/timer"
)

// Instance is anything built from a Descriptor. Implementations embed *Task,
// which provides Base.
type Instance interface {
	Base() *Task
}

// Task is the base every implementation embeds: naming, config, metadata,
// logging and the sub-task map.
type Task struct {
	name     string
	fullName string
	desc     *Descriptor
	config   *config.Config
	metadata *metadata.Store
	log      *slog.Logger
	baseLog  *slog.Logger
	parent   *Task

	subtaskOrder []string
	subtasks     map[string]Instance
}

// Option customizes New.
type Option func(*options)

type options struct {
	config *config.Config
	name   string
	logger *slog.Logger
	parent *Task
}

// WithConfig builds the task from cfg instead of the descriptor defaults.
// The task keeps cfg itself, not a copy, and freezes its structure.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithName overrides the descriptor's default name for a root task.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger the task tree derives its loggers from. Every
// task logs through a child tagged with its full name. Without it the
// process default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New constructs a task tree from desc.
func New(ctx context.Context, desc *Descriptor, opts ...Option) (Instance, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	inst, err := build(ctx, desc, o)
	if err != nil {
		return nil, err
	}
	inst.Base().config.Freeze()
	return inst, nil
}

// NewAs is New followed by a type assertion to the implementation type.
func NewAs[T Instance](ctx context.Context, desc *Descriptor, opts ...Option) (T, error) {
	var zero T
	inst, err := New(ctx, desc, opts...)
	if err != nil {
		return zero, err
	}
	out, ok := inst.(T)
	if !ok {
		return zero, &ConstructionError{Task: inst.Base().FullName(), Reason: fmt.Sprintf("built %T, not %T", inst, zero)}
	}
	return out, nil
}

func build(ctx context.Context, desc *Descriptor, o options) (Instance, error) {
	if desc == nil || desc.Build == nil {
		return nil, &ConstructionError{Task: o.name, Reason: "descriptor has no Build function"}
	}

	// 1. Resolve the name.
	name := o.name
	if name == "" {
		name = desc.DefaultName
	}
	if name == "" {
		return nil, &ConstructionError{Task: desc.Name, Reason: "no name supplied and the descriptor declares no default name"}
	}
	if strings.ContainsAny(name, "."+metadata.Separator) {
		return nil, &ConstructionError{Task: name, Reason: "name must not contain '.' or ':'"}
	}
	fullName := name
	if o.parent != nil {
		fullName = o.parent.fullName + "." + name
	}

	// 2. Resolve and validate the config.
	cfg := o.config
	if cfg == nil {
		cfg = desc.NewConfig()
		if cfg == nil {
			return nil, &ConstructionError{Task: fullName, Reason: fmt.Sprintf("descriptor %q provides no default config", desc.Name)}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConstructionError{Task: fullName, Reason: "invalid config", Err: err}
	}

	// 3. Prepare the base.
	baseLog := o.logger
	if baseLog == nil {
		baseLog = ctxlog.Default()
	}
	log := ctxlog.Child(baseLog, fullName)
	t := &Task{
		name:     name,
		fullName: fullName,
		desc:     desc,
		config:   cfg,
		metadata: metadata.New(fullName),
		log:      log,
		baseLog:  baseLog,
		parent:   o.parent,
		subtasks: make(map[string]Instance),
	}

	// 4. Build every sub-task, in declaration order.
	for _, cf := range cfg.Configurables() {
		if err := t.makeSubtask(ctx, cf); err != nil {
			return nil, &ConstructionError{Task: fullName, Reason: fmt.Sprintf("cannot build sub-task %q", cf.Name), Err: err}
		}
	}

	// 5. Hand over to the implementation.
	inst, err := desc.Build(t)
	if err != nil {
		return nil, &ConstructionError{Task: fullName, Reason: "build failed", Err: err}
	}
	if inst == nil || inst.Base() != t {
		return nil, &ConstructionError{Task: fullName, Reason: "Build must return an instance embedding the base task it was given"}
	}

	ctxlog.FromContext(ctx).Debug("Task constructed.", "task", fullName, "descriptor", desc.Name, "subtasks", len(t.subtaskOrder))
	return inst, nil
}

// makeSubtask builds the sub-task for one configurable field.
func (t *Task) makeSubtask(ctx context.Context, cf *config.ConfigurableField) error {
	desc, ok := cf.Target().(*Descriptor)
	if !ok {
		return fmt.Errorf("target %q is not a task descriptor", cf.Target().TargetName())
	}
	sub, err := build(ctx, desc, options{
		config: cf.Config(),
		name:   cf.Name,
		logger: t.baseLog,
		parent: t,
	})
	if err != nil {
		return err
	}
	t.subtaskOrder = append(t.subtaskOrder, cf.Name)
	t.subtasks[cf.Name] = sub
	return nil
}

// Base implements Instance.
func (t *Task) Base() *Task { return t }

// Name returns the task's own name.
func (t *Task) Name() string { return t.name }

// FullName returns the dot-joined names from the root task down to this one.
func (t *Task) FullName() string { return t.fullName }

// Descriptor returns the descriptor the task was built from.
func (t *Task) Descriptor() *Descriptor { return t.desc }

// Config returns the task's config.
func (t *Task) Config() *config.Config { return t.config }

// Metadata returns the task's own metadata store.
func (t *Task) Metadata() *metadata.Store { return t.metadata }

// Log returns the task's logger.
func (t *Task) Log() *slog.Logger { return t.log }

// Parent returns the owning task, or nil for a root.
func (t *Task) Parent() *Task { return t.parent }

// SubtaskNames returns the sub-task field names in declaration order.
func (t *Task) SubtaskNames() []string {
	return append([]string(nil), t.subtaskOrder...)
}

// Subtask returns the sub-task built for the given field.
func (t *Task) Subtask(field string) (Instance, bool) {
	sub, ok := t.subtasks[field]
	return sub, ok
}

// SubtaskAs returns the sub-task for field as T, typically the interface
// through which the parent calls it.
func SubtaskAs[T any](t *Task, field string) (T, error) {
	var zero T
	sub, ok := t.Subtask(field)
	if !ok {
		return zero, fmt.Errorf("task %q has no sub-task %q", t.fullName, field)
	}
	out, ok := sub.(T)
	if !ok {
		return zero, fmt.Errorf("sub-task %q of %q is %T, which does not implement %T", field, t.fullName, sub, (*T)(nil))
	}
	return out, nil
}

// WithContext returns ctx carrying the task's logger.
func (t *Task) WithContext(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, t.log)
}

// TimeMethod runs fn as the operation name, recording its timing in the
// task's metadata. Use it around the body of a method.
func (t *Task) TimeMethod(ctx context.Context, name string, fn func() error) error {
	return timer.Time(t.WithContext(ctx), t.metadata, name, fn)
}

// Timer is TimeMethod for an arbitrary block inside a method.
func (t *Task) Timer(ctx context.Context, name string, fn func() error) error {
	return t.TimeMethod(ctx, name, fn)
}

// MetadataPath returns the path of the task's store inside FullMetadata.
func (t *Task) MetadataPath() string {
	return strings.ReplaceAll(t.fullName, ".", metadata.Separator)
}

// FullMetadata returns a new store holding a copy of this task's metadata
// and that of every sub-task, each at its MetadataPath. Sub-tasks that never
// recorded anything are present as empty stores.
func (t *Task) FullMetadata() *metadata.Store {
	root := metadata.New("")
	t.collectMetadata(root)
	return root
}

func (t *Task) collectMetadata(root *metadata.Store) {
	if err := root.SetStore(t.MetadataPath(), t.metadata.Copy()); err != nil {
		t.log.Warn("Failed to merge task metadata.", "path", t.MetadataPath(), "error", err)
	}
	for _, name := range t.subtaskOrder {
		t.subtasks[name].Base().collectMetadata(root)
	}
}
