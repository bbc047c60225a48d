package evloop

import (
	"context"
	"errors"
	"sync"
)

// ErrNotSettled is returned by Result when the future is still open.
var ErrNotSettled = errors.New("future is not settled")

// Future is a deferred outcome bound to a Loop. Producers settle it exactly
// once with Resolve or Fail; later attempts are ignored. State transitions
// and completion callbacks always execute on the loop, so callbacks can
// touch loop-owned state freely.
type Future struct {
	loop *Loop

	mu        sync.Mutex
	settled   bool
	value     any
	err       error
	done      chan struct{}
	callbacks []func(any, error)
}

// NewFuture creates an open future bound to the loop.
func (l *Loop) NewFuture() *Future {
	return &Future{loop: l, done: make(chan struct{})}
}

// Resolve settles the future successfully. Safe from any goroutine; the
// transition itself runs on the loop. A no-op if already settled.
func (f *Future) Resolve(value any) {
	f.settle(value, nil)
}

// Fail settles the future with an error. Safe from any goroutine; the
// transition itself runs on the loop. A no-op if already settled.
func (f *Future) Fail(err error) {
	f.settle(nil, err)
}

func (f *Future) settle(value any, err error) {
	scheduleErr := f.loop.Schedule(func() {
		f.mu.Lock()
		if f.settled {
			f.mu.Unlock()
			f.loop.logger.Debug("Ignoring settlement of an already settled future.")
			return
		}
		f.settled = true
		f.value = value
		f.err = err
		callbacks := f.callbacks
		f.callbacks = nil
		close(f.done)
		f.mu.Unlock()

		for _, cb := range callbacks {
			cb(value, err)
		}
	})
	if scheduleErr != nil {
		// The loop is gone, typically because the run already ended while a
		// fire-and-forget operation was still in flight. Expected during
		// shutdown, hence warning severity on the loop's own channel.
		f.loop.logger.Warn("Dropping settlement; the event loop is closed.", "error", err)
	}
}

// OnSettle registers a callback to run on the loop once the future settles.
// If it already has, the callback is scheduled immediately.
func (f *Future) OnSettle(cb func(value any, err error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()

	if scheduleErr := f.loop.Schedule(func() { cb(value, err) }); scheduleErr != nil {
		f.loop.logger.Warn("Dropping completion callback; the event loop is closed.")
	}
}

// Settled reports whether the future has a final outcome.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result returns the settled outcome, or ErrNotSettled while the future is
// still open.
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		return nil, ErrNotSettled
	}
	return f.value, f.err
}

// Await blocks until the future settles or the context is cancelled. It must
// not be called from the loop goroutine itself: the loop would be unable to
// process the settlement it is waiting for.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
