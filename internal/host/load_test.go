package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackhost/stackhostgo/internal/progfile"
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/runtime"
	"github.com/stretchr/testify/require"
)

func resolverFixtures(t *testing.T) (*registry.Registry, []progfile.Loader) {
	t.Helper()
	reg := registry.New()
	reg.RegisterProgram("noop", &registry.RegisteredProgram{
		Description: "Does nothing.",
		Fn:          func(*runtime.Context) error { return nil },
	})
	return reg, DefaultLoaders()
}

func TestResolveProgram_RegistryNameWins(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, loaders := resolverFixtures(t)

	// --- Act ---
	fn, kind, err := resolveProgram(context.Background(), reg, loaders, "noop")

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.Equal(t, "registered", kind)
}

func TestResolveProgram_LoadsProgramFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, loaders := resolverFixtures(t)
	path := filepath.Join(t.TempDir(), "main.hcl")
	content := `
resource "stackhost:demo:Bucket" "assets" {
  properties {
    region = "eu-west-1"
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// --- Act ---
	fn, kind, err := resolveProgram(context.Background(), reg, loaders, path)

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.Equal(t, "declarative", kind)
}

func TestResolveProgram_LoadsProgramDirectory(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, loaders := resolverFixtures(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"),
		[]byte(`resource "stackhost:demo:Bucket" "assets" {}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"),
		[]byte("resources:\n  - type: stackhost:demo:Queue\n    name: jobs\n"), 0644))

	// --- Act ---
	fn, kind, err := resolveProgram(context.Background(), reg, loaders, dir)

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.Equal(t, "declarative", kind)
}

func TestResolveProgram_UnknownEntryIsEnvironmentError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, loaders := resolverFixtures(t)

	// --- Act ---
	_, _, err := resolveProgram(context.Background(), reg, loaders, "no-such-program")

	// --- Assert ---
	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)
	require.Contains(t, envErr.Missing, `program "no-such-program" was not found`)
	// The remediation names both escape hatches: file formats and
	// registered programs.
	require.Contains(t, envErr.Remediation, ".hcl")
	require.Contains(t, envErr.Remediation, "noop")
}

func TestResolveProgram_UnsupportedFileIsEnvironmentError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, loaders := resolverFixtures(t)
	path := filepath.Join(t.TempDir(), "program.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a program"), 0644))

	// --- Act ---
	_, _, err := resolveProgram(context.Background(), reg, loaders, path)

	// --- Assert ---
	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)
	require.Contains(t, envErr.Missing, "no program loader accepts")
}

func TestResolveProgram_BrokenFileIsNotEnvironmental(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg, loaders := resolverFixtures(t)
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`resource "only-one-label" {`), 0644))

	// --- Act ---
	_, _, err := resolveProgram(context.Background(), reg, loaders, path)

	// --- Assert ---
	require.Error(t, err)
	var envErr *EnvironmentError
	require.False(t, errors.As(err, &envErr), "a parse failure is a user error, not a missing environment")
}
