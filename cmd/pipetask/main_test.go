package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipebase/internal/cli"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"PIPE_INPUT_ROOT", "PIPE_CALIB_ROOT", "PIPE_OUTPUT_ROOT"} {
		t.Setenv(name, "")
	}
}

func TestRun_Help(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, []string{"--help"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when help is requested")
	assert.Contains(t, out.String(), "processCcd")
	assert.Contains(t, out.String(), "tasks")
}

func TestRun_ProcessCcd(t *testing.T) {
	// --- Arrange ---
	clearEnv(t)
	out := &bytes.Buffer{}
	args := []string{
		"processCcd", "tag", filepath.Join("testdata", "repo"),
		"--id", "visit=85470982", "sensor=1,2",
		"--config", "datasetType=raw",
		"--log-level", "error",
		"--show-metadata",
	}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"numProcessed": 1`)
}

func TestRun_TaskHelp(t *testing.T) {
	clearEnv(t)
	out := &bytes.Buffer{}

	err := run(out, []string{"processCcd", "--help"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "--show-config")
}

func TestRun_UsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown command", args: []string{"nope"}},
		{name: "missing repository tag", args: []string{"processCcd"}},
		{name: "unknown task flag", args: []string{"processCcd", "tag", "/in", "--bogus"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			clearEnv(t)
			out := &bytes.Buffer{}

			// --- Act ---
			err := run(out, tc.args)

			// --- Assert ---
			var exitErr *cli.ExitError
			require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %v", err)
			assert.Equal(t, cli.ExitCodeUsage, exitErr.Code)
		})
	}
}

func TestRun_RepositoryError(t *testing.T) {
	clearEnv(t)
	out := &bytes.Buffer{}

	err := run(out, []string{"processCcd", "tag", t.TempDir(), "--id", "visit=1", "--log-level", "error"})

	require.Error(t, err)
	var exitErr *cli.ExitError
	assert.False(t, errors.As(err, &exitErr), "repository errors exit with code 1")
	assert.Contains(t, err.Error(), "no repository found")
}

func TestRun_Tasks(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(out, []string{"tasks"})

	require.NoError(t, err)
	for _, name := range []string{"AddTask", "AddTwiceTask", "MultTask", "AddMultTask", "ProcessCcdTask"} {
		assert.Contains(t, out.String(), name)
	}
}
