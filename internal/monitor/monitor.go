// Package monitor defines the client surface of the resource monitor: the
// remote service that admits, tracks and answers the resource operations a
// program issues during a run.
package monitor

import "context"

// RegisterRequest declares one resource against the monitor.
type RegisterRequest struct {
	Project      string         `json:"project"`
	Stack        string         `json:"stack"`
	Type         string         `json:"type"`
	Name         string         `json:"name"`
	Properties   map[string]any `json:"properties,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	DryRun       bool           `json:"dryRun,omitempty"`
}

// RegisterResponse is the monitor's answer to a registration.
type RegisterResponse struct {
	URN        string         `json:"urn"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
}

// InvokeRequest calls a monitor function by token.
type InvokeRequest struct {
	Token string         `json:"token"`
	Args  map[string]any `json:"args,omitempty"`
}

// InvokeResponse is the monitor's answer to an invoke.
type InvokeResponse struct {
	Return map[string]any `json:"return,omitempty"`
}

// RejectedError reports that the monitor understood a request and refused
// it. The reason is user-facing: hosts surface it verbatim, without a stack
// trace.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// Client is the transport-agnostic monitor surface the runtime programs
// against. Implementations must be safe for concurrent use.
type Client interface {
	RegisterResource(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error)
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
	Close() error
}
