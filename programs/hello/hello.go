// Package hello ships the built-in example program. It exercises the whole
// runtime surface in miniature: configuration lookup, program output, and a
// fire-and-forget resource registration.
package hello

import (
	"fmt"

	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// Program implements the registry.Program interface for this package.
type Program struct{}

// Run is the entrypoint for the built-in 'hello' program.
func Run(ctx *runtime.Context) error {
	greeting := ctx.ConfigOr("hello:greeting", "Hello")
	subject := "world"
	if args := ctx.Args(); len(args) > 1 {
		subject = args[1]
	}
	message := fmt.Sprintf("%s, %s!", greeting, subject)

	fmt.Fprintln(ctx.Output(), message)
	ctx.Log().Info("Greeting written.", "subject", subject)

	// Registered without awaiting; the run waits for the monitor's answer
	// anyway.
	ctx.RegisterResource("stackhost:demo:Greeting", subject, map[string]any{
		"message": message,
	})
	return nil
}

// Register registers the program with the host.
func (p *Program) Register(r *registry.Registry) {
	r.RegisterProgram("hello", &registry.RegisteredProgram{
		Description: "Greets the caller and registers one demo resource.",
		Fn:          Run,
	})
}
