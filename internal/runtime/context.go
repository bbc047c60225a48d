package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/stackhost/stackhostgo/internal/evloop"
	"github.com/stackhost/stackhostgo/internal/monitor"
)

// ProgramFunc is a program entrypoint. The returned error, if any, is
// reported as a failure the program raised deliberately when it is a
// RunError, and as an unhandled fault otherwise.
type ProgramFunc func(*Context) error

// Context is the capability surface a program runs against: run identity,
// configuration, the resource monitor, and the run's output streams. The
// host creates exactly one per run. Its methods are safe to call from any
// goroutine the program spawns, but panics are only captured on the
// program's own goroutine.
type Context struct {
	ctx      context.Context
	settings *Settings
	config   *ConfigStore
	monitor  monitor.Client
	loop     *evloop.Loop
	sup      *supervisor
	out      io.Writer
	logger   *slog.Logger
}

// ContextParams bundles the dependencies of a Context.
type ContextParams struct {
	Settings *Settings
	Config   *ConfigStore
	Monitor  monitor.Client
	Loop     *evloop.Loop
	Output   io.Writer
	Logger   *slog.Logger
}

// NewContext assembles a program context. Settings, Monitor and Loop are
// required; Output and Logger fall back to discard and the process default.
func NewContext(ctx context.Context, params ContextParams) *Context {
	if params.Settings == nil || params.Monitor == nil || params.Loop == nil {
		panic("runtime: NewContext requires Settings, Monitor and Loop")
	}
	if params.Output == nil {
		params.Output = io.Discard
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	if params.Config == nil {
		params.Config = NewConfigStore()
	}
	return &Context{
		ctx:      ctx,
		settings: params.Settings,
		config:   params.Config,
		monitor:  params.Monitor,
		loop:     params.Loop,
		out:      params.Output,
		logger:   params.Logger,
	}
}

// Project returns the project this run belongs to.
func (c *Context) Project() string { return c.settings.Project }

// Stack returns the stack this run manipulates.
func (c *Context) Stack() string { return c.settings.Stack }

// DryRun reports whether the run must not mutate real state.
func (c *Context) DryRun() bool { return c.settings.DryRun }

// Parallel returns the in-flight operation cap handed down by the engine.
func (c *Context) Parallel() int { return c.settings.Parallel }

// Args returns the argv the program observes: the entrypoint name followed
// by the trailing command line arguments.
func (c *Context) Args() []string {
	out := make([]string, len(c.settings.Args))
	copy(out, c.settings.Args)
	return out
}

// Output is the run's primary stream. Only what the program itself writes
// belongs here; diagnostics go through Log.
func (c *Context) Output() io.Writer { return c.out }

// Log returns the structured diagnostic logger for program code.
func (c *Context) Log() *slog.Logger { return c.logger }

// Config looks up one configuration key.
func (c *Context) Config(key string) (string, bool) {
	return c.config.Get(key)
}

// ConfigOr looks up one configuration key, falling back when it is absent.
func (c *Context) ConfigOr(key, fallback string) string {
	if value, ok := c.config.Get(key); ok {
		return value
	}
	return fallback
}

// RequireConfig looks up one configuration key and raises a RunError when it
// is absent, so a missing key reads as a user-addressable failure rather
// than a crash.
func (c *Context) RequireConfig(key string) (string, error) {
	value, ok := c.config.Get(key)
	if !ok {
		return "", RunErrorf("missing required configuration key %q", key)
	}
	return value, nil
}

// IsSecret reports whether a configuration key was marked secret.
func (c *Context) IsSecret(key string) bool {
	return c.config.IsSecret(key)
}

// ConfigMap returns a copy of the whole configuration snapshot.
func (c *Context) ConfigMap() map[string]string {
	return c.config.All()
}

// resourceOptions collects the optional arguments of RegisterResource.
type resourceOptions struct {
	dependsOn []*Resource
}

// ResourceOption customises a RegisterResource call.
type ResourceOption func(*resourceOptions)

// DependsOn orders this registration after the given resources. Their URNs
// are forwarded to the monitor as explicit dependencies.
func DependsOn(deps ...*Resource) ResourceOption {
	return func(o *resourceOptions) {
		o.dependsOn = append(o.dependsOn, deps...)
	}
}

// Resource is the asynchronous handle returned by RegisterResource. The
// registration proceeds in the background; the accessors block until the
// monitor has answered.
type Resource struct {
	typ  string
	name string
	fut  *evloop.Future
}

// Type returns the declared resource type token.
func (r *Resource) Type() string { return r.typ }

// Name returns the declared resource name.
func (r *Resource) Name() string { return r.name }

// Await blocks until the registration settled and returns the monitor's
// answer. Resources never awaited are still observed by the run supervisor,
// so dropping the handle does not hide a failure.
func (r *Resource) Await(ctx context.Context) (*monitor.RegisterResponse, error) {
	value, err := r.fut.Await(ctx)
	if err != nil {
		return nil, err
	}
	return value.(*monitor.RegisterResponse), nil
}

// URN blocks until the registration settled and returns the assigned URN.
func (r *Resource) URN(ctx context.Context) (string, error) {
	resp, err := r.Await(ctx)
	if err != nil {
		return "", err
	}
	return resp.URN, nil
}

// RegisterResource declares a resource against the monitor and returns
// immediately. The call is fire-and-forget by design: the handle can be
// awaited for the URN, but an abandoned handle still settles and its failure
// still fails the run.
func (c *Context) RegisterResource(typ, name string, properties map[string]any, opts ...ResourceOption) *Resource {
	var options resourceOptions
	for _, opt := range opts {
		opt(&options)
	}

	fut := c.loop.NewFuture()
	res := &Resource{typ: typ, name: name, fut: fut}

	c.sup.enter()
	fut.OnSettle(func(_ any, err error) { c.sup.leave(err) })

	dispatch := func(dependencies []string) {
		go func() {
			resp, err := c.monitor.RegisterResource(c.ctx, &monitor.RegisterRequest{
				Project:      c.settings.Project,
				Stack:        c.settings.Stack,
				Type:         typ,
				Name:         name,
				Properties:   properties,
				Dependencies: dependencies,
				DryRun:       c.settings.DryRun,
			})
			if err != nil {
				fut.Fail(asProgramError(err, typ, name))
				return
			}
			fut.Resolve(resp)
		}()
	}

	if len(options.dependsOn) == 0 {
		dispatch(nil)
		return res
	}

	// Dependencies resolve on the loop, so the countdown below needs no
	// locking. The first failed dependency fails this registration too.
	remaining := len(options.dependsOn)
	urns := make([]string, len(options.dependsOn))
	failed := false
	for i, dep := range options.dependsOn {
		i, dep := i, dep
		dep.fut.OnSettle(func(value any, err error) {
			if failed {
				return
			}
			if err != nil {
				failed = true
				fut.Fail(fmt.Errorf("dependency %q of resource %q failed: %w", dep.name, name, err))
				return
			}
			urns[i] = value.(*monitor.RegisterResponse).URN
			remaining--
			if remaining == 0 {
				dispatch(urns)
			}
		})
	}
	return res
}

// Invoke calls a monitor function and waits for its result. Unlike
// RegisterResource it is synchronous: the error comes back to the caller,
// who may handle it, and nothing is recorded against the run supervisor.
func (c *Context) Invoke(token string, args map[string]any) (map[string]any, error) {
	resp, err := c.monitor.Invoke(c.ctx, &monitor.InvokeRequest{Token: token, Args: args})
	if err != nil {
		var rejected *monitor.RejectedError
		if errors.As(err, &rejected) {
			return nil, WrapAsRunError(err, rejected.Reason)
		}
		return nil, fmt.Errorf("invoking %q: %w", token, err)
	}
	return resp.Return, nil
}

// asProgramError maps a monitor rejection onto a RunError so it classifies
// as a failure the program raised, and adds registration context to anything
// else.
func asProgramError(err error, typ, name string) error {
	var rejected *monitor.RejectedError
	if errors.As(err, &rejected) {
		return WrapAsRunError(err, rejected.Reason)
	}
	return fmt.Errorf("registering resource %q (%s): %w", name, typ, err)
}
