package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/stackhost/stackhostgo/internal/ctxlog"
	"github.com/stackhost/stackhostgo/internal/evloop"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// Run drives the program to completion and returns its classified outcome.
// The returned error is nil unless teardown itself faulted; a teardown fault
// is fatal regardless of how well the program did, because there is no later
// point to report it.
func (h *Host) Run(ctx context.Context) (outcome Outcome, err error) {
	ctx = ctxlog.WithLogger(ctx, h.logger)
	h.logger.Debug("Host.Run method started.")

	loop := evloop.Acquire(h.logger.Handler())
	prevDir := ""
	defer func() {
		if guardErr := h.teardown(loop, prevDir); guardErr != nil {
			err = guardErr
		}
	}()

	// Raise the loop's diagnostic floor before driving anything: operations
	// still pending when a failed run shuts down are expected, and their
	// warnings would drown the report that matters.
	loop.SetDiagnosticLevel(evloop.LevelCritical)

	if h.cfg.Pwd != "" {
		previous, chdirErr := os.Getwd()
		if chdirErr == nil {
			chdirErr = os.Chdir(h.cfg.Pwd)
		}
		if chdirErr != nil {
			return h.classify(fmt.Errorf("entering working directory %q: %w", h.cfg.Pwd, chdirErr)), nil
		}
		prevDir = previous
	}

	rctx := runtime.NewContext(ctx, runtime.ContextParams{
		Settings: h.settings,
		Config:   h.store,
		Monitor:  h.monitor,
		Loop:     loop,
		Output:   h.outW,
		Logger:   h.logger.With("logger", "program"),
	})

	h.logger.Info("🚀 Starting program run.",
		"program", h.cfg.Program,
		"project", h.cfg.Project,
		"stack", h.cfg.Stack,
		"dryRun", h.cfg.DryRun,
	)
	fut := runtime.RunInStack(rctx, h.program)
	_, runErr := loop.RunUntilComplete(fut)

	outcome = h.classify(runErr)
	h.logger.Info("🏁 Program run finished.", "outcome", outcome.Kind.String())
	return outcome, nil
}

// teardown releases everything the run held: the event loop, the output
// streams, the monitor connection, and the working directory. It runs
// exactly once per Run, success or not. Loop, stream and directory failures
// propagate; transport close failures only warn, since the run's result is
// already safe by then.
func (h *Host) teardown(loop *evloop.Loop, prevDir string) error {
	h.logger.Debug("Host teardown started.")
	var errs []error

	if err := loop.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing event loop: %w", err))
	}
	if err := flushWriter(h.outW); err != nil {
		errs = append(errs, fmt.Errorf("flushing primary stream: %w", err))
	}
	if err := flushWriter(h.errW); err != nil {
		errs = append(errs, fmt.Errorf("flushing diagnostic stream: %w", err))
	}
	if err := h.monitor.Close(); err != nil {
		h.logger.Warn("Monitor client close failed.", "error", err)
	}
	if closer, ok := h.diag.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			h.logger.Warn("Diagnostic sink close failed.", "error", err)
		}
	}
	if prevDir != "" {
		if err := os.Chdir(prevDir); err != nil {
			errs = append(errs, fmt.Errorf("restoring working directory: %w", err))
		}
	}

	h.logger.Debug("Host teardown finished.")
	return errors.Join(errs...)
}

// flusher is the capability buffered streams expose.
type flusher interface {
	Flush() error
}

// flushWriter flushes w when it buffers, and is a no-op otherwise.
func flushWriter(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
