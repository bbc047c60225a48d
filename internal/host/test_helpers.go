package host

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stackhost/stackhostgo/internal/envconfig"
	"github.com/stackhost/stackhostgo/internal/evloop"
	"github.com/stackhost/stackhostgo/internal/monitor"
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// CaptureSink records every failure report delivered to the engine-facing
// sink, in order.
type CaptureSink struct {
	mu      sync.Mutex
	reports []string
}

func (s *CaptureSink) Error(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, message)
}

// Reports returns a copy of everything reported so far.
func (s *CaptureSink) Reports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reports...)
}

// HostFixture carries the fakes and capture buffers a test host runs
// against.
type HostFixture struct {
	Logs    *SafeBuffer
	Output  *SafeBuffer
	Monitor *monitor.InMemory
	Diag    *CaptureSink
}

// SetupHostTest creates a host wired to in-process fakes for system testing.
// It resets the process-wide run state (current event loop, settings,
// configuration) before building the host and again at cleanup, so tests
// using it must not run in parallel.
func SetupHostTest(t *testing.T, cfg *Config, env map[string]string, programs ...registry.Program) (*Host, *HostFixture) {
	t.Helper()

	ResetProcessState()
	t.Cleanup(ResetProcessState)

	fixture := &HostFixture{
		Logs:    &SafeBuffer{},
		Output:  &SafeBuffer{},
		Monitor: monitor.NewInMemory(),
		Diag:    &CaptureSink{},
	}
	cfg.LogLevel = "debug"
	testHost := New(fixture.Output, fixture.Logs, cfg, &Options{
		Programs:    programs,
		Monitor:     fixture.Monitor,
		Diagnostics: fixture.Diag,
		LookupEnv:   LookupFromMap(env),
	})

	t.Cleanup(func() {
		if os.Getenv("STACKHOST_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), fixture.Logs.String())
		}
	})

	return testHost, fixture
}

// ResetProcessState clears the process-wide run state that New installs.
func ResetProcessState() {
	evloop.SetCurrent(nil)
	runtime.Install(nil)
	runtime.InstallStore(nil)
}

// LookupFromMap adapts a plain map into the environment lookup the host
// reads configuration through.
func LookupFromMap(env map[string]string) envconfig.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

// funcProgram registers a single program backed by fn, for tests inside
// this package.
type funcProgram struct {
	name string
	fn   runtime.ProgramFunc
}

func (p *funcProgram) Register(r *registry.Registry) {
	r.RegisterProgram(p.name, &registry.RegisteredProgram{
		Description: "Test program.",
		Fn:          p.fn,
	})
}
