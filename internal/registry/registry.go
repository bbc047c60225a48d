package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/stackhost/stackhostgo/internal/runtime"
)

// Program is the interface all built-in program modules implement to be
// registered.
type Program interface {
	Register(r *Registry)
}

// RegisteredProgram holds the compiled Go parts of one program.
type RegisteredProgram struct {
	// Description is a one-line summary shown in listings.
	Description string
	// Fn is the program entrypoint.
	Fn runtime.ProgramFunc
}

// Registry holds all registered programs for a single host instance.
type Registry struct {
	programs map[string]*RegisteredProgram
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		programs: make(map[string]*RegisteredProgram),
	}
}

// RegisterProgram registers a program entrypoint under a name. Names are
// claimed once at startup, so a collision is a programming error and panics.
func (r *Registry) RegisterProgram(name string, program *RegisteredProgram) {
	if _, exists := r.programs[name]; exists {
		panic(fmt.Sprintf("program with name '%s' already registered", name))
	}
	if program == nil || program.Fn == nil {
		panic(fmt.Sprintf("program '%s' registered without an entrypoint", name))
	}
	slog.Debug("Registering program.", "name", name)
	r.programs[name] = program
}

// Lookup finds a registered program by name.
func (r *Registry) Lookup(name string) (*RegisteredProgram, bool) {
	program, ok := r.programs[name]
	return program, ok
}

// Names returns the registered program names, sorted for stable listings.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
