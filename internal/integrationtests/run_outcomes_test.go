package integrationtests

import (
	"errors"
	"testing"

	"github.com/stackhost/stackhostgo/internal/host"
	"github.com/stackhost/stackhostgo/internal/monitor"
	"github.com/stackhost/stackhostgo/internal/runtime"
	"github.com/stackhost/stackhostgo/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Every test here drives the full host lifecycle, which installs
// process-wide state, so none of them run in parallel.

func TestOutcome_SuccessfulRun(t *testing.T) {
	// --- Arrange ---
	program := &testutil.FuncProgram{Name: "deploy", Fn: func(ctx *runtime.Context) error {
		ctx.RegisterResource("stackhost:aws:Bucket", "assets", map[string]any{
			"region": "eu-west-1",
		})
		return nil
	}}
	cfg := &host.Config{Program: "deploy", Project: "shop", Stack: "prod"}

	// --- Act ---
	result := testutil.RunHostTest(t, nil, cfg, program)

	// --- Assert ---
	testutil.AssertOutcome(t, result, host.OutcomeSucceeded)
	testutil.AssertNothingReported(t, result)
	require.Equal(t, 0, result.Outcome.ExitCode())

	resources := result.Monitor.Resources()
	require.Len(t, resources, 1)
	require.Equal(t, "urn:prod::shop::stackhost:aws:Bucket::assets", resources[0].URN)
}

func TestOutcome_DeliberateFailureIsDomainError(t *testing.T) {
	// --- Arrange ---
	program := &testutil.FuncProgram{Name: "deploy", Fn: func(ctx *runtime.Context) error {
		return runtime.RunErrorf("stack %q is locked", ctx.Stack())
	}}
	cfg := &host.Config{Program: "deploy", Stack: "prod"}

	// --- Act ---
	result := testutil.RunHostTest(t, nil, cfg, program)

	// --- Assert ---
	testutil.AssertOutcome(t, result, host.OutcomeDomainError)
	testutil.AssertReportedOnce(t, result, `stack "prod" is locked`)
	require.Equal(t, 1, result.Outcome.ExitCode())
	// Deliberate failures are reported without a stack trace.
	require.NotContains(t, result.Reports[0], "goroutine")
}

func TestOutcome_PanicIsUnhandledFault(t *testing.T) {
	// --- Arrange ---
	program := &testutil.FuncProgram{Name: "deploy", Fn: func(ctx *runtime.Context) error {
		var resources []string
		_ = resources[3]
		return nil
	}}
	cfg := &host.Config{Program: "deploy"}

	// --- Act ---
	result := testutil.RunHostTest(t, nil, cfg, program)

	// --- Assert ---
	testutil.AssertOutcome(t, result, host.OutcomeFaulted)
	testutil.AssertReportedOnce(t, result, "an unhandled error occurred: ")
	require.Contains(t, result.Reports[0], "index out of range")
	require.Contains(t, result.Reports[0], "goroutine")
}

func TestOutcome_AbandonedOperationFailureFailsTheRun(t *testing.T) {
	// --- Arrange ---
	program := &testutil.FuncProgram{Name: "deploy", Fn: func(ctx *runtime.Context) error {
		ctx.RegisterResource("stackhost:aws:Queue", "jobs", nil)
		return nil
	}}
	mon := monitor.NewInMemory()
	mon.RejectType("stackhost:aws:Queue", "queues are disabled")
	cfg := &host.Config{Program: "deploy"}

	// --- Act ---
	result := testutil.RunHostTestWithMonitor(t, nil, mon, cfg, program)

	// --- Assert ---
	testutil.AssertOutcome(t, result, host.OutcomeDomainError)
	testutil.AssertReportedOnce(t, result, "queues are disabled")
}

func TestOutcome_HandledInvokeErrorDoesNotFailTheRun(t *testing.T) {
	// --- Arrange ---
	program := &testutil.FuncProgram{Name: "deploy", Fn: func(ctx *runtime.Context) error {
		_, err := ctx.Invoke("stackhost:aws:getZones", nil)
		var runErr *runtime.RunError
		if !errors.As(err, &runErr) {
			return errors.New("expected the unknown token to come back as a deliberate failure")
		}
		// The program handles the failure and succeeds anyway.
		return nil
	}}
	cfg := &host.Config{Program: "deploy"}

	// --- Act ---
	result := testutil.RunHostTest(t, nil, cfg, program)

	// --- Assert ---
	testutil.AssertOutcome(t, result, host.OutcomeSucceeded)
	testutil.AssertNothingReported(t, result)
}
