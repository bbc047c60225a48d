package progfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/stackhost/stackhostgo/internal/evloop"
	"github.com/stackhost/stackhostgo/internal/monitor"
	"github.com/stackhost/stackhostgo/internal/progfile"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// memLoader parses nothing; it serves fixed declarations keyed by path so
// discovery can be tested apart from any real format.
type memLoader struct {
	exts  []string
	files map[string]*progfile.File
	err   error
}

func (l *memLoader) Extensions() []string { return l.exts }

func (l *memLoader) Load(ctx context.Context, path string) (*progfile.File, error) {
	if l.err != nil {
		return nil, l.err
	}
	file, ok := l.files[path]
	if !ok {
		return nil, errors.New("unexpected path " + path)
	}
	return file, nil
}

func decl(typ, name string, deps ...string) *progfile.ResourceDecl {
	return &progfile.ResourceDecl{Type: typ, Name: name, DependsOn: deps}
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDiscover_SingleFileUsesTheMatchingLoader(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	path := touch(t, filepath.Join(t.TempDir(), "main.mem"))
	loader := &memLoader{
		exts:  []string{".mem"},
		files: map[string]*progfile.File{path: {Resources: []*progfile.ResourceDecl{decl("db:Cluster", "main")}}},
	}

	// --- Act ---
	file, err := progfile.Discover(context.Background(), []progfile.Loader{loader}, path)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, file.Resources, 1)
	require.Equal(t, "main", file.Resources[0].Name)
}

func TestDiscover_DirectoryMergesFilesInPathOrder(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	root := t.TempDir()
	first := touch(t, filepath.Join(root, "01-db.mem"))
	second := touch(t, filepath.Join(root, "02-web.mem"))
	loader := &memLoader{
		exts: []string{".mem"},
		files: map[string]*progfile.File{
			first:  {Resources: []*progfile.ResourceDecl{decl("db:Cluster", "main")}},
			second: {Resources: []*progfile.ResourceDecl{decl("web:Server", "api", "main")}},
		},
	}

	// --- Act ---
	file, err := progfile.Discover(context.Background(), []progfile.Loader{loader}, root)

	// --- Assert ---
	require.NoError(t, err)
	var names []string
	for _, r := range file.Resources {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"main", "api"}, names); diff != "" {
		t.Errorf("merge order mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_UnsupportedExtensionIsANoLoaderError(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	path := touch(t, filepath.Join(t.TempDir(), "main.exe"))

	// --- Act ---
	_, err := progfile.Discover(context.Background(), []progfile.Loader{&memLoader{exts: []string{".mem"}}}, path)

	// --- Assert ---
	var noLoader *progfile.NoLoaderError
	require.ErrorAs(t, err, &noLoader)
	require.False(t, noLoader.Dir)
}

func TestDiscover_EmptyDirectoryIsANoLoaderError(t *testing.T) {
	t.Parallel()
	// --- Act ---
	_, err := progfile.Discover(context.Background(), []progfile.Loader{&memLoader{exts: []string{".mem"}}}, t.TempDir())

	// --- Assert ---
	var noLoader *progfile.NoLoaderError
	require.ErrorAs(t, err, &noLoader)
	require.True(t, noLoader.Dir)
}

func TestDiscover_MissingPathSurfacesTheStatError(t *testing.T) {
	t.Parallel()
	// --- Act ---
	_, err := progfile.Discover(context.Background(), nil, filepath.Join(t.TempDir(), "absent.mem"))

	// --- Assert ---
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscover_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		resources []*progfile.ResourceDecl
		wantErr   string
	}{
		{
			name:      "duplicate names are rejected",
			resources: []*progfile.ResourceDecl{decl("a:A", "x"), decl("b:B", "x")},
			wantErr:   "duplicate resource name",
		},
		{
			name:      "forward dependencies are rejected",
			resources: []*progfile.ResourceDecl{decl("a:A", "x", "y"), decl("b:B", "y")},
			wantErr:   "not declared before it",
		},
		{
			name:      "unnamed resources are rejected",
			resources: []*progfile.ResourceDecl{decl("a:A", "")},
			wantErr:   "type and a name",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			path := touch(t, filepath.Join(t.TempDir(), "main.mem"))
			loader := &memLoader{
				exts:  []string{".mem"},
				files: map[string]*progfile.File{path: {Resources: tc.resources}},
			}

			// --- Act ---
			_, err := progfile.Discover(context.Background(), []progfile.Loader{loader}, path)

			// --- Assert ---
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestProgram_RegistersDeclarationsAgainstTheMonitor(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	file := &progfile.File{Resources: []*progfile.ResourceDecl{
		{Type: "db:Cluster", Name: "main", Properties: map[string]any{"engine": "postgres"}},
		{Type: "web:Server", Name: "api", DependsOn: []string{"main"}},
	}}
	mon := monitor.NewInMemory()
	loop := evloop.New(nil)
	rctx := runtime.NewContext(context.Background(), runtime.ContextParams{
		Settings: &runtime.Settings{Project: "demo", Stack: "dev"},
		Monitor:  mon,
		Loop:     loop,
	})

	// --- Act ---
	fut := runtime.RunInStack(rctx, progfile.Program(file))
	_, err := loop.RunUntilComplete(fut)

	// --- Assert ---
	require.NoError(t, err)
	resources := mon.Resources()
	require.Len(t, resources, 2)
	require.Equal(t, "main", resources[0].Name)
	require.Equal(t, "api", resources[1].Name)
	require.Equal(t, []string{"urn:dev::demo::db:Cluster::main"}, resources[1].Dependencies)
	require.Equal(t, map[string]any{"engine": "postgres"}, resources[0].Properties)
}

func TestProgram_UnawaitedRejectionFailsTheRun(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	file := &progfile.File{Resources: []*progfile.ResourceDecl{decl("db:Cluster", "main")}}
	mon := monitor.NewInMemory()
	mon.RejectType("db:Cluster", "no capacity")
	loop := evloop.New(nil)
	rctx := runtime.NewContext(context.Background(), runtime.ContextParams{
		Settings: &runtime.Settings{Project: "demo", Stack: "dev"},
		Monitor:  mon,
		Loop:     loop,
	})

	// --- Act ---
	fut := runtime.RunInStack(rctx, progfile.Program(file))
	_, err := loop.RunUntilComplete(fut)

	// --- Assert ---
	var runErr *runtime.RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, "no capacity", runErr.Message)
}
