// Package testutil holds the shared harness for end-to-end driver tests: it
// lays out a repository on disk, runs a command-line task through the driver
// and captures logs, output and results.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pipebase/internal/app"
	"github.com/vk/pipebase/internal/registry"
	"github.com/vk/pipebase/internal/task"
)

// RootPlaceholder in an argument is replaced with the harness root directory.
const RootPlaceholder = "{root}"

// HarnessResult holds the outcomes of a driver run.
type HarnessResult struct {
	Root      string
	LogOutput string
	Output    string
	Result    *app.Result
	Err       error
}

// WriteFiles writes files (relative path to content) below a fresh temporary
// directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// RunDriver writes files, then runs desc through app.ParseAndRun with args.
// Occurrences of RootPlaceholder in args are replaced with the directory the
// files were written to. The data root environment is cleared first.
func RunDriver(t *testing.T, desc *task.Descriptor, files map[string]string, args ...string) *HarnessResult {
	t.Helper()
	return RunDriverWithContext(context.Background(), t, nil, desc, files, args...)
}

// RunDriverWithContext is RunDriver with a caller context and registry. A
// nil registry means the core modules plus the test tasks of this package.
func RunDriverWithContext(ctx context.Context, t *testing.T, reg *registry.Registry, desc *task.Descriptor, files map[string]string, args ...string) *HarnessResult {
	t.Helper()

	for _, name := range []string{"PIPE_INPUT_ROOT", "PIPE_CALIB_ROOT", "PIPE_OUTPUT_ROOT"} {
		t.Setenv(name, "")
	}
	if reg == nil {
		reg = app.NewRegistry()
		(&Module{}).Register(reg)
	}

	// 1. Lay out the files.
	root := WriteFiles(t, files)
	expanded := make([]string, len(args))
	for i, arg := range args {
		expanded[i] = replaceRoot(arg, root)
	}

	// 2. Run the driver with captured logs and output.
	logger, logs := app.NewTestLogger(t)
	out := &bytes.Buffer{}
	res, err := app.ParseAndRun(ctx, desc, expanded,
		app.WithLogger(logger),
		app.WithRegistry(reg),
		app.WithOutput(out),
	)

	return &HarnessResult{
		Root:      root,
		LogOutput: logs.String(),
		Output:    out.String(),
		Result:    res,
		Err:       err,
	}
}

func replaceRoot(arg, root string) string {
	return strings.ReplaceAll(arg, RootPlaceholder, root)
}
