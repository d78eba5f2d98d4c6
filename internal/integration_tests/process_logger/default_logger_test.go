package integration_tests

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipebase/internal/app"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/testutil"
	"github.com/vk/pipebase/modules/ccd"
)

// processLogs receives everything written through the process-wide logger.
var processLogs = &app.SafeBuffer{}

func TestMain(m *testing.M) {
	ctxlog.Init(slog.New(slog.NewTextHandler(processLogs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	os.Exit(m.Run())
}

// Test for: without a caller logger or log flags, runs log through the process default
func TestProcessLogger_DefaultReceivesTaskRecords(t *testing.T) {
	// --- Arrange ---
	root := testutil.WriteFiles(t, map[string]string{
		"repo.hcl": "dimensions {\n  visit = number\n}\nentry {\n  visit = 85470990\n}\n",
	})
	logOut := &bytes.Buffer{}

	// --- Act ---
	res, err := app.ParseAndRun(context.Background(), ccd.ProcessCcdTask,
		[]string{"tag", root, "--id", "visit=85470990"},
		app.WithLogOutput(logOut), app.WithOutput(&bytes.Buffer{}))

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, logOut.String())
	assert.Contains(t, processLogs.String(), "Processed CCD.")
	assert.Contains(t, processLogs.String(), "task=processCcd")
	assert.Contains(t, processLogs.String(), "🏁 Task run finished.")
	require.Len(t, res.Results, 1)
}
