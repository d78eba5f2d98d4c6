package ccd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipebase/internal/dataref"
	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/internal/repository"
	"github.com/vk/pipebase/internal/task"
	"github.com/zclconf/go-cty/cty"
)

func newRepo(t *testing.T) *repository.Repo {
	t.Helper()
	repo, err := repository.New("/data", repository.Dimension{Name: "visit", Type: cty.Number})
	require.NoError(t, err)
	require.NoError(t, repo.AddDataset("raw", "raw/${visit}.fits"))
	for _, v := range []int64{1, 2} {
		_, err := repo.AddEntry(map[string]cty.Value{"visit": cty.NumberIntVal(v)})
		require.NoError(t, err)
	}
	return repo
}

func resolveAll(t *testing.T, repo *repository.Repo) []*dataref.Ref {
	t.Helper()
	tmpl, err := dataref.ParseGroup([]string{"visit=1..2"}, repo.Schema())
	require.NoError(t, err)
	refs, err := repo.Resolve(context.Background(), tmpl)
	require.NoError(t, err)
	return refs
}

func TestProcessCcd_Run(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	cfg := ProcessCcdTask.NewConfig()
	require.NoError(t, cfg.Set("datasetType", "raw"))
	p, err := task.NewAs[*ProcessCcd](ctx, ProcessCcdTask, task.WithConfig(cfg))
	require.NoError(t, err)
	refs := resolveAll(t, newRepo(t))

	// --- Act ---
	var results []any
	for _, ref := range refs {
		res, err := p.Run(ctx, ref)
		require.NoError(t, err)
		results = append(results, res)
	}

	// --- Assert ---
	require.Len(t, results, 2)
	first := results[0].(Result)
	assert.Equal(t, int64(1), first.ID.Get("visit"))
	assert.Equal(t, 3.1, first.F)
	assert.Equal(t, "/data/raw/1.fits", first.Path)

	seen := p.Seen()
	require.Len(t, seen, 2)
	assert.Equal(t, int64(2), seen[1].Get("visit"))
	n, ok := p.Metadata().Float("numProcessed")
	assert.True(t, ok)
	assert.Equal(t, float64(2), n)
}

func TestProcessCcd_UnknownDataset(t *testing.T) {
	ctx := context.Background()
	cfg := ProcessCcdTask.NewConfig()
	require.NoError(t, cfg.Set("datasetType", "flat"))
	p, err := task.NewAs[*ProcessCcd](ctx, ProcessCcdTask, task.WithConfig(cfg))
	require.NoError(t, err)

	_, err = p.Run(ctx, resolveAll(t, newRepo(t))[0])
	require.Error(t, err)
	assert.Empty(t, p.Seen())
	_, ok := p.Metadata().Float("runEndCpuTime")
	assert.True(t, ok, "timer must close on failure")
}

func TestModule_Register(t *testing.T) {
	reg := registry.New(&Module{})
	require.NoError(t, reg.ValidateRegistry(context.Background()))
	require.Len(t, reg.CmdLine(), 1)
	assert.Equal(t, "ProcessCcdTask", reg.CmdLine()[0].Name)
}
