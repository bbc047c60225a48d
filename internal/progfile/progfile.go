// Package progfile models declarative programs: runs described as resource
// declarations in a file rather than as code. A Loader parses one format;
// Discover assembles every declaration behind a path; Program turns the
// result into a runnable entrypoint.
package progfile

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stackhost/stackhostgo/internal/fsutil"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// ResourceDecl is one declared resource.
type ResourceDecl struct {
	Type       string
	Name       string
	Properties map[string]any
	DependsOn  []string
}

// File is an ordered list of declarations, possibly merged from several
// source files.
type File struct {
	Resources []*ResourceDecl
}

// Loader parses one program file format.
type Loader interface {
	// Extensions lists the file extensions this loader accepts, dot included.
	Extensions() []string
	// Load parses a single file into declarations, preserving their order.
	Load(ctx context.Context, path string) (*File, error)
}

// NoLoaderError reports a path that no linked loader can parse.
type NoLoaderError struct {
	Path string
	Dir  bool
}

func (e *NoLoaderError) Error() string {
	if e.Dir {
		return fmt.Sprintf("no loadable program files under %q", e.Path)
	}
	return fmt.Sprintf("no program loader accepts %q", e.Path)
}

// Discover resolves path into a merged, validated declaration list. A plain
// file is parsed by the loader matching its extension. A directory is walked
// recursively and every file any loader accepts is parsed, in lexical path
// order, so multi-file programs merge deterministically.
func Discover(ctx context.Context, loaders []Loader, path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		loader := loaderFor(loaders, path)
		if loader == nil {
			return nil, &NoLoaderError{Path: path}
		}
		file, err := loader.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		return file, validate(file)
	}

	var extensions []string
	for _, loader := range loaders {
		extensions = append(extensions, loader.Extensions()...)
	}
	if len(extensions) == 0 {
		return nil, &NoLoaderError{Path: path, Dir: true}
	}
	paths, err := fsutil.FindFilesByExtensions(path, extensions...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &NoLoaderError{Path: path, Dir: true}
	}

	merged := &File{}
	for _, p := range paths {
		loader := loaderFor(loaders, p)
		file, err := loader.Load(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		merged.Resources = append(merged.Resources, file.Resources...)
	}
	return merged, validate(merged)
}

func loaderFor(loaders []Loader, path string) Loader {
	for _, loader := range loaders {
		for _, ext := range loader.Extensions() {
			if strings.HasSuffix(path, ext) {
				return loader
			}
		}
	}
	return nil
}

// validate rejects declarations that could not possibly run: unnamed
// resources, duplicate names, and dependencies on resources that are not
// declared earlier. Requiring dependencies to point backwards keeps the
// declaration graph acyclic without a separate cycle check.
func validate(f *File) error {
	seen := make(map[string]struct{}, len(f.Resources))
	for _, decl := range f.Resources {
		if decl.Type == "" || decl.Name == "" {
			return fmt.Errorf("resource declaration needs both a type and a name (got type=%q name=%q)", decl.Type, decl.Name)
		}
		if _, dup := seen[decl.Name]; dup {
			return fmt.Errorf("duplicate resource name %q", decl.Name)
		}
		for _, dep := range decl.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("resource %q depends on %q, which is not declared before it", decl.Name, dep)
			}
		}
		seen[decl.Name] = struct{}{}
	}
	return nil
}

// Program converts declarations into an entrypoint. Each resource is
// registered in declaration order without awaiting: ordering between
// dependent resources flows through their handles, and failures of
// registrations nobody awaits are picked up by the run supervisor.
func Program(f *File) runtime.ProgramFunc {
	return func(c *runtime.Context) error {
		c.Log().Debug("Registering declared resources.", "count", len(f.Resources))
		handles := make(map[string]*runtime.Resource, len(f.Resources))
		for _, decl := range f.Resources {
			var opts []runtime.ResourceOption
			if len(decl.DependsOn) > 0 {
				deps := make([]*runtime.Resource, 0, len(decl.DependsOn))
				for _, name := range decl.DependsOn {
					deps = append(deps, handles[name])
				}
				opts = append(opts, runtime.DependsOn(deps...))
			}
			handles[decl.Name] = c.RegisterResource(decl.Type, decl.Name, decl.Properties, opts...)
		}
		return nil
	}
}
