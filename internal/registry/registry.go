package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/task"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered task descriptors for a single application
// instance.
type Registry struct {
	descriptors map[string]*task.Descriptor
	cmdLine     map[string]bool
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{
		descriptors: make(map[string]*task.Descriptor),
		cmdLine:     make(map[string]bool),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a descriptor. Registering an unnamed descriptor or a name
// twice is a programming error and panics.
func (r *Registry) Register(desc *task.Descriptor) {
	if desc == nil || desc.Name == "" {
		panic("registry: descriptor must have a name")
	}
	if _, exists := r.descriptors[desc.Name]; exists {
		panic(fmt.Sprintf("task descriptor with name '%s' already registered", desc.Name))
	}
	slog.Debug("Registering task descriptor.", "name", desc.Name)
	r.descriptors[desc.Name] = desc
}

// RegisterCmdLine adds a descriptor that can also be run from the command
// line over data references.
func (r *Registry) RegisterCmdLine(desc *task.Descriptor) {
	r.Register(desc)
	r.cmdLine[desc.Name] = true
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*task.Descriptor, error) {
	desc, ok := r.descriptors[name]
	if !ok {
		return nil, fmt.Errorf("no task registered under name %q", name)
	}
	return desc, nil
}

// Resolver adapts Lookup to config.TargetResolver.
func (r *Registry) Resolver() config.TargetResolver {
	return func(name string) (config.Target, error) {
		desc, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		return desc, nil
	}
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CmdLine returns the command-line descriptors, sorted by name.
func (r *Registry) CmdLine() []*task.Descriptor {
	var out []*task.Descriptor
	for _, name := range r.Names() {
		if r.cmdLine[name] {
			out = append(out, r.descriptors[name])
		}
	}
	return out
}
