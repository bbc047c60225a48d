package evloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// LevelCritical sits above slog.LevelError and gates the loop's own
// diagnostics. Raising the loop's threshold to this level suppresses every
// message the loop emits in normal operation.
const LevelCritical = slog.LevelError + 4

// ErrClosed is returned by operations attempted against a closed loop.
var ErrClosed = errors.New("event loop is closed")

// ErrRunning is returned when an operation requires an idle loop but a
// RunUntilComplete call is active.
var ErrRunning = errors.New("event loop is already running")

var (
	currentMu sync.Mutex
	current   *Loop
)

// Acquire returns the process-current loop, creating and installing a fresh
// one when none exists. The handler is only consulted on creation; callers
// that find an existing loop inherit whatever diagnostics it was built with.
func Acquire(handler slog.Handler) *Loop {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		current = New(handler)
	}
	return current
}

// SetCurrent replaces the process-current loop. Passing nil clears it so the
// next Acquire creates a fresh loop. Intended for tests and for embedders
// that manage the loop themselves.
func SetCurrent(l *Loop) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = l
}

// Loop is a single-threaded cooperative scheduler. Callbacks are drained in
// FIFO order by RunUntilComplete on the goroutine that calls it.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	closed  bool
	running bool

	level  *slog.LevelVar
	logger *slog.Logger
}

// New creates an idle loop. A nil handler falls back to the process default,
// which keeps the zero-configuration path working in tests.
func New(handler slog.Handler) *Loop {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	return &Loop{
		wake:   make(chan struct{}, 1),
		level:  level,
		logger: slog.New(&gateHandler{inner: handler, level: level}).With("logger", "evloop"),
	}
}

// SetDiagnosticLevel adjusts the severity threshold of the loop's own
// diagnostics without affecting any other logger sharing the same handler.
func (l *Loop) SetDiagnosticLevel(level slog.Level) {
	l.level.Set(level)
}

// Schedule enqueues fn to run on the loop goroutine. It is safe to call from
// any goroutine and preserves submission order.
func (l *Loop) Schedule(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// RunUntilComplete drains the queue on the calling goroutine until fut
// settles, then returns its value and error. Only one RunUntilComplete may be
// active at a time.
func (l *Loop) RunUntilComplete(fut *Future) (any, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	if l.running {
		l.mu.Unlock()
		return nil, ErrRunning
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		if fut.Settled() {
			return fut.Result()
		}
		fn, ok := l.pop()
		if !ok {
			// Nothing queued and the future is still open. Every state
			// change arrives through Schedule, so block until one does.
			<-l.wake
			continue
		}
		fn()
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue = l.queue[1:]
	return fn, true
}

// Close marks the loop closed and discards any callbacks that never ran.
// Discarded work is reported at warning severity; runs that expect pending
// operations at shutdown raise the diagnostic level first. Close is
// idempotent and fails if called from inside a running callback.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrRunning
	}
	if l.closed {
		return nil
	}
	l.closed = true
	if pending := len(l.queue); pending > 0 {
		l.logger.Warn("Discarding callbacks still pending at close.", "pending", pending)
		l.queue = nil
	}
	return nil
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// gateHandler applies an adjustable severity floor in front of another
// handler. The inner handler keeps its own filtering; the gate only ever
// drops records, never adds them.
type gateHandler struct {
	inner slog.Handler
	level *slog.LevelVar
}

func (g *gateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= g.level.Level() && g.inner.Enabled(ctx, level)
}

func (g *gateHandler) Handle(ctx context.Context, record slog.Record) error {
	return g.inner.Handle(ctx, record)
}

func (g *gateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &gateHandler{inner: g.inner.WithAttrs(attrs), level: g.level}
}

func (g *gateHandler) WithGroup(name string) slog.Handler {
	return &gateHandler{inner: g.inner.WithGroup(name), level: g.level}
}
