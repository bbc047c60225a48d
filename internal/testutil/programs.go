package testutil

import (
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// NoOpProgram registers a single "noop" program that returns immediately.
// It's useful for tests that exercise host wiring rather than program
// behavior.
type NoOpProgram struct{}

// Register registers the "noop" program.
func (p *NoOpProgram) Register(r *registry.Registry) {
	r.RegisterProgram("noop", &registry.RegisteredProgram{
		Description: "Does nothing and succeeds.",
		Fn: func(ctx *runtime.Context) error {
			// No operation
			return nil
		},
	})
}

// FuncProgram registers a single program under Name backed by Fn, letting a
// test inject arbitrary program behavior without a package of its own.
type FuncProgram struct {
	Name string
	Fn   runtime.ProgramFunc
}

// Register registers the program under its configured name.
func (p *FuncProgram) Register(r *registry.Registry) {
	r.RegisterProgram(p.Name, &registry.RegisteredProgram{
		Description: "Test program.",
		Fn:          p.Fn,
	})
}
