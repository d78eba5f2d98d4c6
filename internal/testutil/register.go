package testutil

import (
	"context"
	"fmt"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/dataref"
	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Module registers the test tasks of this package.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCmdLine(RecorderTask)
}

// RecorderTask returns the data id of every reference it runs on, prefixed
// with its "label" field. It fails on the visit named by "failVisit".
var RecorderTask = &task.Descriptor{
	Name:        "RecorderTask",
	DefaultName: "recorder",
	Doc:         "Record every data id.",
	DefaultConfig: func() *config.Config {
		return config.MustNew(
			config.NewField("label", "prefix of every result", cty.String, "id"),
			config.NewField("failVisit", "visit to fail on", cty.Number, nil).AsOptional(),
		)
	},
	Build: func(base *task.Task) (task.Instance, error) {
		return &Recorder{Task: base}, nil
	},
}

// Recorder is the RecorderTask implementation.
type Recorder struct {
	*task.Task
}

// Run implements app.CmdLineTask.
func (r *Recorder) Run(ctx context.Context, ref *dataref.Ref) (any, error) {
	var out string
	err := r.TimeMethod(ctx, "run", func() error {
		if fail, err := r.Config().Get("failVisit"); err == nil && !fail.IsNull() {
			if v, ok := ref.ID().Value("visit"); ok && v.Equals(fail).True() {
				return fmt.Errorf("recorder: refusing visit %s", v.AsBigFloat().Text('f', -1))
			}
		}
		out = fmt.Sprintf("%s:%s", r.Config().String("label"), ref)
		return nil
	})
	return out, err
}
