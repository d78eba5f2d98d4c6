package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipebase/internal/testutil"
)

// Test for: the --show-config output is a valid override file
func TestHCLFeatures_ShowConfig_RoundTrip(t *testing.T) {
	// --- Arrange ---
	first := testutil.RunDriver(t, testutil.RecorderTask, map[string]string{"repo.hcl": repo},
		"tag", testutil.RootPlaceholder, "--config", "label=tuned", "--config", "failVisit=99", "--show-config",
	)
	require.NoError(t, first.Err, first.LogOutput)
	assert.Regexp(t, `(?m)^label\s+= "tuned"$`, first.Output)

	// --- Act ---
	second := testutil.RunDriver(t, testutil.RecorderTask,
		map[string]string{"repo.hcl": repo, "shown.hcl": first.Output},
		"tag", testutil.RootPlaceholder, "--id", "visit=7", "--config-file", testutil.RootPlaceholder+"/shown.hcl",
	)

	// --- Assert ---
	testutil.AssertResults(t, second, "tuned:visit=7")
	assert.True(t, first.Result.ParsedCmd.Config.Equal(second.Result.ParsedCmd.Config))
}
