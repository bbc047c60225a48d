package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RegisteredResource is one accepted registration as the in-memory monitor
// recorded it.
type RegisteredResource struct {
	URN          string
	ID           string
	Type         string
	Name         string
	Properties   map[string]any
	Dependencies []string
	DryRun       bool
}

// InvokeFunc handles one invoke token on the in-memory monitor.
type InvokeFunc func(args map[string]any) (map[string]any, error)

// InMemory is a monitor that lives inside the process. Local runs use it
// when no monitor address was handed down, and tests use it to observe
// exactly what a program registered.
type InMemory struct {
	mu        sync.Mutex
	resources []RegisteredResource
	rejected  map[string]string
	functions map[string]InvokeFunc
	latency   time.Duration
}

// NewInMemory creates an empty in-memory monitor that accepts everything.
func NewInMemory() *InMemory {
	return &InMemory{
		rejected:  make(map[string]string),
		functions: make(map[string]InvokeFunc),
	}
}

// RejectType makes every future registration of the given type fail with a
// RejectedError carrying reason.
func (m *InMemory) RejectType(typ, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[typ] = reason
}

// OnInvoke installs the handler for an invoke token.
func (m *InMemory) OnInvoke(token string, fn InvokeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[token] = fn
}

// SetLatency delays every request by d, simulating a slow remote monitor so
// operations stay in flight past the moment the program returns.
func (m *InMemory) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// RegisterResource records the registration and fabricates a URN and ID the
// way a real monitor would.
func (m *InMemory) RegisterResource(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if reason, ok := m.rejected[req.Type]; ok {
		return nil, &RejectedError{Reason: reason}
	}
	record := RegisteredResource{
		URN:          fmt.Sprintf("urn:%s::%s::%s::%s", req.Stack, req.Project, req.Type, req.Name),
		ID:           uuid.NewString(),
		Type:         req.Type,
		Name:         req.Name,
		Properties:   req.Properties,
		Dependencies: req.Dependencies,
		DryRun:       req.DryRun,
	}
	m.resources = append(m.resources, record)
	return &RegisterResponse{URN: record.URN, ID: record.ID, Properties: req.Properties}, nil
}

// Invoke dispatches to the handler registered for the token.
func (m *InMemory) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	fn, ok := m.functions[req.Token]
	m.mu.Unlock()
	if !ok {
		return nil, &RejectedError{Reason: fmt.Sprintf("unknown function token %q", req.Token)}
	}
	ret, err := fn(req.Args)
	if err != nil {
		return nil, err
	}
	return &InvokeResponse{Return: ret}, nil
}

// Close is a no-op; the in-memory monitor holds no external resources.
func (m *InMemory) Close() error { return nil }

// Resources returns a snapshot of every accepted registration in the order
// the monitor admitted them.
func (m *InMemory) Resources() []RegisteredResource {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RegisteredResource, len(m.resources))
	copy(out, m.resources)
	return out
}

func (m *InMemory) sleep(ctx context.Context) error {
	m.mu.Lock()
	latency := m.latency
	m.mu.Unlock()
	if latency <= 0 {
		return nil
	}
	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
