package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackhost/stackhostgo/internal/host"
	"github.com/stackhost/stackhostgo/internal/monitor"
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of a full host run in a test.
type HarnessResult struct {
	Outcome       host.Outcome
	LogOutput     string
	ProgramOutput string
	// Reports are the failure messages delivered to the engine sink.
	Reports []string
	// Monitor is the in-memory monitor the run registered against.
	Monitor *monitor.InMemory
	// Err carries a recovered startup panic; nil once the run started.
	Err  error
	Host *host.Host
}

// RunHostTest provides a standardized harness for running a program through
// the full host lifecycle using a default background context. Because a run
// installs process-wide state, tests built on this harness must not call
// t.Parallel.
func RunHostTest(t *testing.T, files map[string]string, cfg *host.Config, programs ...registry.Program) *HarnessResult {
	t.Helper()
	return runHost(context.Background(), t, files, nil, nil, cfg, programs...)
}

// RunHostTestWithContext runs a program through the full host lifecycle with
// a caller-provided context.
func RunHostTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg *host.Config, programs ...registry.Program) *HarnessResult {
	t.Helper()
	return runHost(ctx, t, files, nil, nil, cfg, programs...)
}

// RunHostTestWithEnv is RunHostTest with engine-style configuration
// variables injected through the environment lookup.
func RunHostTestWithEnv(t *testing.T, files map[string]string, env map[string]string, cfg *host.Config, programs ...registry.Program) *HarnessResult {
	t.Helper()
	return runHost(context.Background(), t, files, env, nil, cfg, programs...)
}

// RunHostTestWithMonitor is RunHostTest against a monitor the caller
// prepared, typically to program rejections before the run starts.
func RunHostTestWithMonitor(t *testing.T, files map[string]string, mon *monitor.InMemory, cfg *host.Config, programs ...registry.Program) *HarnessResult {
	t.Helper()
	return runHost(context.Background(), t, files, nil, mon, cfg, programs...)
}

func runHost(ctx context.Context, t *testing.T, files map[string]string, env map[string]string, mon *monitor.InMemory, cfg *host.Config, programs ...registry.Program) *HarnessResult {
	t.Helper()

	// 1. Write the declarative program files, if any, to a temporary root.
	//    The test provides relative paths (e.g. "grid/web.hcl"), which
	//    naturally creates the subdirectory structure within the root.
	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	// 2. A PROGRAM naming one of the written files (or their directory)
	//    resolves against the temporary root.
	if cfg.Program != "" {
		if candidate := filepath.Join(tmpDir, cfg.Program); pathExists(candidate) {
			cfg.Program = candidate
		}
	}
	cfg.LogLevel = "debug"

	host.ResetProcessState()
	t.Cleanup(host.ResetProcessState)

	logBuffer := &host.SafeBuffer{}
	outBuffer := &host.SafeBuffer{}
	sink := &host.CaptureSink{}
	if mon == nil {
		mon = monitor.NewInMemory()
	}

	opts := &host.Options{
		Monitor:     mon,
		Diagnostics: sink,
		LookupEnv:   host.LookupFromMap(env),
	}
	if len(programs) > 0 {
		opts.Programs = programs
	}

	var testHost *host.Host
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("STACKHOST_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testHost = host.New(outBuffer, logBuffer, cfg, opts)
	}()

	if panicErr != nil {
		err, ok := panicErr.(error)
		if !ok {
			err = fmt.Errorf("host startup panicked | %v", panicErr)
		}
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Reports:   sink.Reports(),
			Monitor:   mon,
			Err:       err,
		}
	}

	outcome, runErr := testHost.Run(ctx)
	require.NoError(t, runErr, "teardown must not fault in tests")

	if os.Getenv("STACKHOST_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Outcome:       outcome,
		LogOutput:     logBuffer.String(),
		ProgramOutput: outBuffer.String(),
		Reports:       sink.Reports(),
		Monitor:       mon,
		Host:          testHost,
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
