package arith

import (
	"context"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/task"
	"github.com/zclconf/go-cty/cty"
)

func newAddConfig() *config.Config {
	return config.MustNew(
		config.NewField("addend", "amount to add", cty.Number, 3.1),
	)
}

// AddTask adds a constant.
var AddTask = &task.Descriptor{
	Name:          "AddTask",
	DefaultName:   "add",
	Doc:           "Add addend to the input value.",
	DefaultConfig: newAddConfig,
	Build: func(base *task.Task) (task.Instance, error) {
		return &Add{Task: base}, nil
	},
}

// AddTwiceTask is a drop-in replacement for AddTask that adds the addend
// twice.
var AddTwiceTask = &task.Descriptor{
	Name:          "AddTwiceTask",
	DefaultName:   "addTwice",
	Doc:           "Add twice the addend to the input value.",
	DefaultConfig: newAddConfig,
	Build: func(base *task.Task) (task.Instance, error) {
		return &AddTwice{Task: base}, nil
	},
}

// Add is the AddTask implementation.
type Add struct {
	*task.Task
}

// Run returns val + addend.
func (a *Add) Run(ctx context.Context, val float64) (Result, error) {
	var res Result
	err := a.TimeMethod(ctx, "run", func() error {
		res.Val = val + a.Config().Float("addend")
		return nil
	})
	return res, err
}

// AddTwice is the AddTwiceTask implementation.
type AddTwice struct {
	*task.Task
}

// Run returns val + 2*addend.
func (a *AddTwice) Run(ctx context.Context, val float64) (Result, error) {
	var res Result
	err := a.TimeMethod(ctx, "run", func() error {
		res.Val = val + 2*a.Config().Float("addend")
		return nil
	})
	return res, err
}
