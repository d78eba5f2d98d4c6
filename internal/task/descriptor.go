package task

import "github.com/vk/pipebase/internal/config"

// Descriptor is the static description of a task implementation. It is the
// Target bound by configurable fields, so retargeting a field means pointing
// it at another Descriptor.
type Descriptor struct {
	// Name identifies the implementation, e.g. "AddTask". It is what
	// override files use to retarget a field.
	Name string
	// DefaultName is the instance name used when the task is built as a
	// root without an explicit name. Sub-tasks are always named after
	// their field.
	DefaultName string
	// Doc is a one-line description.
	Doc string
	// DefaultConfig returns a fresh config holding the implementation's
	// defaults.
	DefaultConfig func() *config.Config
	// Build wraps the prepared base task into the implementation. Sub-tasks
	// already exist when Build is called.
	Build func(base *Task) (Instance, error)
}

// TargetName implements config.Target.
func (d *Descriptor) TargetName() string {
	if d == nil {
		return ""
	}
	return d.Name
}

// NewConfig implements config.Target.
func (d *Descriptor) NewConfig() *config.Config {
	if d == nil || d.DefaultConfig == nil {
		return nil
	}
	return d.DefaultConfig()
}
