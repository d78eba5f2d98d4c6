package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// AssertResults checks that the run succeeded and produced exactly want, in
// order.
func AssertResults(t *testing.T, result *HarnessResult, want ...any) {
	t.Helper()

	require.NoError(t, result.Err, "driver failed; logs:\n%s", result.LogOutput)
	require.NotNil(t, result.Result)
	if want == nil {
		want = []any{}
	}
	if diff := cmp.Diff(want, result.Result.Results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}
