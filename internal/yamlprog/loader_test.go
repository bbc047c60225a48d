package yamlprog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/stackhost/stackhostgo/internal/progfile"
)

func writeProgram(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load_TranslatesResourceDocuments(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	path := writeProgram(t, "main.yaml", `
resources:
  - type: db:Cluster
    name: main
    properties:
      engine: postgres
      replicas: 3
      tuning:
        max_connections: 100
  - type: web:Server
    name: api
    dependsOn: [main]
`)

	// --- Act ---
	file, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	want := &progfile.File{Resources: []*progfile.ResourceDecl{
		{
			Type: "db:Cluster",
			Name: "main",
			Properties: map[string]any{
				"engine":   "postgres",
				"replicas": 3,
				"tuning":   map[string]any{"max_connections": 100},
			},
		},
		{
			Type:      "web:Server",
			Name:      "api",
			DependsOn: []string{"main"},
		},
	}}
	if diff := cmp.Diff(want, file); diff != "" {
		t.Errorf("parsed program mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Load_MissingFileIsAnError(t *testing.T) {
	t.Parallel()
	// --- Act ---
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))

	// --- Assert ---
	require.Error(t, err)
}

func TestLoader_Load_MalformedYAMLIsReportedWithThePath(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	path := writeProgram(t, "broken.yml", "resources: [whoops")

	// --- Act ---
	_, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.yml")
}

func TestLoader_Extensions(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{".yaml", ".yml"}, NewLoader().Extensions())
}
