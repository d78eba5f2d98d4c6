package arith

import (
	"context"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// multParams is the decoded form of the mult config.
type multParams struct {
	Multiplicand float64 `cty:"multiplicand"`
}

// MultTask multiplies by a constant.
var MultTask = &task.Descriptor{
	Name:        "MultTask",
	DefaultName: "mult",
	Doc:         "Multiply the input value by multiplicand.",
	DefaultConfig: func() *config.Config {
		return config.MustNew(
			config.NewField("multiplicand", "amount by which to multiply", cty.Number, 2.5),
		)
	},
	Build: func(base *task.Task) (task.Instance, error) {
		return &Mult{Task: base}, nil
	},
}

// Mult is the MultTask implementation.
type Mult struct {
	*task.Task
}

// Run returns val * multiplicand.
func (m *Mult) Run(ctx context.Context, val float64) (Result, error) {
	var res Result
	err := m.TimeMethod(ctx, "run", func() error {
		var p multParams
		if err := m.Config().Decode(&p); err != nil {
			return err
		}
		res.Val = val * p.Multiplicand
		return nil
	})
	return res, err
}
