package runtime

import "fmt"

// RunError marks a failure raised deliberately by the program or by a
// service it called. The message is meant for the user as-is, so hosts
// report it without a stack trace.
type RunError struct {
	Message string
	cause   error
}

// NewRunError creates a RunError with the given user-facing message.
func NewRunError(message string) *RunError {
	return &RunError{Message: message}
}

// RunErrorf creates a RunError with a formatted user-facing message.
func RunErrorf(format string, args ...any) *RunError {
	return &RunError{Message: fmt.Sprintf(format, args...)}
}

// WrapAsRunError creates a RunError that keeps cause reachable through
// errors.Is and errors.As while presenting message to the user.
func WrapAsRunError(cause error, message string) *RunError {
	return &RunError{Message: message, cause: cause}
}

func (e *RunError) Error() string { return e.Message }

func (e *RunError) Unwrap() error { return e.cause }

// FaultError captures a crash that escaped the program: the recovered panic
// value plus the goroutine stack at the point of recovery.
type FaultError struct {
	Message string
	Stack   string
}

// NewFaultError builds a FaultError from a recovered panic value and the
// stack captured alongside it.
func NewFaultError(recovered any, stack []byte) *FaultError {
	return &FaultError{Message: fmt.Sprint(recovered), Stack: string(stack)}
}

func (e *FaultError) Error() string { return e.Message }
