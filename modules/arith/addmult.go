package arith

import (
	"context"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/task"
)

// AddMultTask first adds, then multiplies, through two sub-tasks. Either
// sub-task can be retargeted to any ValueRunner.
var AddMultTask = &task.Descriptor{
	Name:        "AddMultTask",
	DefaultName: "addMult",
	Doc:         "Compute (val + addend) * multiplicand.",
	DefaultConfig: func() *config.Config {
		return config.MustNew(
			config.NewConfigurableField("add", "adding step", AddTask),
			config.NewConfigurableField("mult", "multiplying step", MultTask),
		)
	},
	Build: func(base *task.Task) (task.Instance, error) {
		add, err := task.SubtaskAs[ValueRunner](base, "add")
		if err != nil {
			return nil, err
		}
		mult, err := task.SubtaskAs[ValueRunner](base, "mult")
		if err != nil {
			return nil, err
		}
		return &AddMult{Task: base, add: add, mult: mult}, nil
	},
}

// AddMult is the AddMultTask implementation.
type AddMult struct {
	*task.Task
	add  ValueRunner
	mult ValueRunner
}

// Add returns the adding sub-task.
func (am *AddMult) Add() ValueRunner { return am.add }

// Mult returns the multiplying sub-task.
func (am *AddMult) Mult() ValueRunner { return am.mult }

// Run returns (val + addend) * multiplicand as computed by the sub-tasks.
func (am *AddMult) Run(ctx context.Context, val float64) (Result, error) {
	var res Result
	err := am.TimeMethod(ctx, "run", func() error {
		return am.Timer(ctx, "context", func() error {
			added, err := am.add.Run(ctx, val)
			if err != nil {
				return err
			}
			res, err = am.mult.Run(ctx, added.Val)
			return err
		})
	})
	return res, err
}
