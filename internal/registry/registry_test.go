package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackhost/stackhostgo/internal/runtime"
)

func noop(*runtime.Context) error { return nil }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	r := New()
	r.RegisterProgram("hello", &RegisteredProgram{Description: "greets", Fn: noop})

	// --- Act ---
	program, ok := r.Lookup("hello")

	// --- Assert ---
	require.True(t, ok)
	require.Equal(t, "greets", program.Description)
	require.NotNil(t, program.Fn)

	_, ok = r.Lookup("absent")
	require.False(t, ok)
}

func TestRegistry_DuplicateNamePanics(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	r := New()
	r.RegisterProgram("hello", &RegisteredProgram{Fn: noop})

	// --- Act / Assert ---
	require.Panics(t, func() {
		r.RegisterProgram("hello", &RegisteredProgram{Fn: noop})
	})
}

func TestRegistry_MissingEntrypointPanics(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	r := New()

	// --- Act / Assert ---
	require.Panics(t, func() {
		r.RegisterProgram("broken", &RegisteredProgram{})
	})
}

func TestRegistry_NamesAreSorted(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	r := New()
	r.RegisterProgram("zeta", &RegisteredProgram{Fn: noop})
	r.RegisterProgram("alpha", &RegisteredProgram{Fn: noop})

	// --- Act / Assert ---
	require.Equal(t, []string{"alpha", "zeta"}, r.Names())
}
