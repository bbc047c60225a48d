package testutil

import (
	"strings"
	"testing"

	"github.com/stackhost/stackhostgo/internal/host"
	"github.com/stretchr/testify/require"
)

// AssertOutcome checks the classified outcome of a harness run.
func AssertOutcome(t *testing.T, result *HarnessResult, want host.OutcomeKind) {
	t.Helper()
	require.NoError(t, result.Err, "host startup must succeed before an outcome exists")
	require.Equal(t, want, result.Outcome.Kind,
		"expected outcome %q, got %q (message: %s)", want, result.Outcome.Kind, result.Outcome.Message)
}

// AssertReportedOnce checks that exactly one failure report reached the
// engine sink and that it contains the given substring. It abstracts the
// report formatting, making tests resilient to wording changes around the
// payload.
func AssertReportedOnce(t *testing.T, result *HarnessResult, substring string) {
	t.Helper()
	require.Len(t, result.Reports, 1, "expected exactly one report to the engine sink")
	require.True(t, strings.Contains(result.Reports[0], substring),
		"expected report to contain %q, got %q", substring, result.Reports[0])
}

// AssertNothingReported checks that no failure report reached the engine
// sink.
func AssertNothingReported(t *testing.T, result *HarnessResult) {
	t.Helper()
	require.Empty(t, result.Reports, "expected no reports to the engine sink")
}
