package runtime

import (
	"runtime/debug"
	"sync"

	"github.com/stackhost/stackhostgo/internal/evloop"
)

// supervisor tracks the program goroutine plus every asynchronous operation
// it spawned, and settles the run future only once both have finished. This
// is what keeps fire-and-forget registrations observable: their failures
// fail the run even when nobody awaited them.
type supervisor struct {
	done *evloop.Future

	mu          sync.Mutex
	pending     int
	programDone bool
	programErr  error
	opErr       error
	finished    bool
}

func (s *supervisor) enter() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
}

func (s *supervisor) leave(err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if err != nil && s.opErr == nil {
		s.opErr = err
	}
	s.maybeFinishLocked()
}

func (s *supervisor) finishProgram(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programDone = true
	s.programErr = err
	s.maybeFinishLocked()
}

// maybeFinishLocked settles the run future once the program returned and no
// operation is outstanding. The program's own error takes precedence over
// errors from spawned operations; among those, the first one recorded wins.
func (s *supervisor) maybeFinishLocked() {
	if s.finished || !s.programDone || s.pending > 0 {
		return
	}
	s.finished = true
	err := s.programErr
	if err == nil {
		err = s.opErr
	}
	if err != nil {
		s.done.Fail(err)
		return
	}
	s.done.Resolve(nil)
}

// RunInStack launches the program under supervision as one scheduled unit of
// work on the context's loop. The returned future settles only after the
// program returned and every operation it spawned has been observed. A panic
// on the program goroutine surfaces as a FaultError carrying the stack at
// the point of the crash.
func RunInStack(rctx *Context, program ProgramFunc) *evloop.Future {
	done := rctx.loop.NewFuture()
	sup := &supervisor{done: done}
	rctx.sup = sup

	scheduleErr := rctx.loop.Schedule(func() {
		// The program runs on its own goroutine so it can block in Await
		// while the loop goroutine keeps draining callbacks.
		go func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					sup.finishProgram(NewFaultError(recovered, debug.Stack()))
				}
			}()
			sup.finishProgram(program(rctx))
		}()
	})
	if scheduleErr != nil {
		// The loop is already closed. Driving the returned future reports
		// the same condition, so nothing extra to do here.
		rctx.logger.Debug("Launch skipped; the event loop is closed.")
	}
	return done
}
