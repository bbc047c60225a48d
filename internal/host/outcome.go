package host

import (
	"errors"

	"github.com/stackhost/stackhostgo/internal/runtime"
)

// OutcomeKind is the terminal classification of a run.
type OutcomeKind int

const (
	// OutcomeSucceeded means the program and all its operations finished
	// without error.
	OutcomeSucceeded OutcomeKind = iota
	// OutcomeDomainError means the program (or a service it called) raised
	// a deliberate, user-addressable failure.
	OutcomeDomainError
	// OutcomeFaulted means an unhandled crash escaped the program.
	OutcomeFaulted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "success"
	case OutcomeDomainError:
		return "domain error"
	case OutcomeFaulted:
		return "unhandled fault"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one run.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	// Trace carries the goroutine stack for faults that crashed; empty
	// otherwise.
	Trace string
}

// ExitCode maps the outcome onto the process exit code: zero for success,
// one for everything else.
func (o Outcome) ExitCode() int {
	if o.Kind == OutcomeSucceeded {
		return 0
	}
	return 1
}

// faultPreface distinguishes crash reports from deliberate failures in the
// diagnostic stream.
const faultPreface = "an unhandled error occurred: "

// classify folds the run error into an Outcome and reports failures through
// the engine-facing sink, exactly once per run. Deliberate failures carry
// only their message; everything else is a fault reported with the preface
// and whatever trace was captured.
func (h *Host) classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSucceeded}
	}

	var runErr *runtime.RunError
	if errors.As(err, &runErr) {
		h.diag.Error(runErr.Message)
		return Outcome{Kind: OutcomeDomainError, Message: runErr.Message}
	}

	var trace string
	var fault *runtime.FaultError
	if errors.As(err, &fault) {
		trace = fault.Stack
	}
	report := faultPreface + err.Error()
	if trace != "" {
		report += "\n" + trace
	}
	h.diag.Error(report)
	return Outcome{Kind: OutcomeFaulted, Message: err.Error(), Trace: trace}
}
