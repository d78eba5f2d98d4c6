// Package ccd provides processCcd, the example command-line task. It is run
// once per data reference, records every data id it sees and, when a dataset
// type is configured, resolves where that dataset lives.
package ccd

import (
	"context"
	"fmt"

	"github.com/vk/pipebase/internal/config"
	"github.com/vk/pipebase/internal/dataref"
	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the descriptors with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCmdLine(ProcessCcdTask)
}

// ProcessCcdTask processes one CCD per data reference.
var ProcessCcdTask = &task.Descriptor{
	Name:        "ProcessCcdTask",
	DefaultName: "processCcd",
	Doc:         "Process the CCD named by each data reference.",
	DefaultConfig: func() *config.Config {
		return config.MustNew(
			config.NewField("f", "scale factor applied to each CCD", cty.Number, 3.1),
			config.NewField("datasetType", "dataset to locate for each CCD; unset skips the lookup", cty.String, nil).AsOptional(),
		)
	},
	Build: func(base *task.Task) (task.Instance, error) {
		return &ProcessCcd{Task: base}, nil
	},
}

// Result is what processCcd returns for one data reference.
type Result struct {
	ID   dataref.ID
	F    float64
	Path string
}

type params struct {
	F           float64 `cty:"f"`
	DatasetType string  `cty:"datasetType"`
}

// ProcessCcd is the ProcessCcdTask implementation.
type ProcessCcd struct {
	*task.Task
	seen []dataref.ID
}

// Run processes the CCD identified by ref.
func (p *ProcessCcd) Run(ctx context.Context, ref *dataref.Ref) (any, error) {
	var res Result
	err := p.TimeMethod(ctx, "run", func() error {
		var cfg params
		if err := p.Config().Decode(&cfg); err != nil {
			return err
		}
		res = Result{ID: ref.ID(), F: cfg.F}
		if cfg.DatasetType != "" {
			path, err := ref.Lookup(cfg.DatasetType)
			if err != nil {
				return fmt.Errorf("locate %s: %w", cfg.DatasetType, err)
			}
			res.Path = path
		}

		p.seen = append(p.seen, ref.ID())
		p.Log().Info("Processed CCD.", "data_id", ref.String())
		return p.Metadata().Set("numProcessed", len(p.seen))
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Seen returns the data ids processed so far, in order.
func (p *ProcessCcd) Seen() []dataref.ID {
	return append([]dataref.ID(nil), p.seen...)
}
