// Package arith provides small arithmetic tasks: add, add twice, multiply
// and their composition, add then multiply. They are the reference example
// of sub-task wiring and retargeting.
package arith

import (
	"context"

	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the descriptors with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(AddTask)
	r.Register(AddTwiceTask)
	r.Register(MultTask)
	r.Register(AddMultTask)
}

// Result is the output of every arithmetic task.
type Result struct {
	Val float64
}

// ValueRunner is the run contract shared by the arithmetic tasks.
type ValueRunner interface {
	task.Instance
	Run(ctx context.Context, val float64) (Result, error)
}
