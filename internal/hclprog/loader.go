// Package hclprog loads declarative programs written in HCL.
package hclprog

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/stackhost/stackhostgo/internal/ctxlog"
	"github.com/stackhost/stackhostgo/internal/progfile"
)

// Loader is the HCL implementation of progfile.Loader.
type Loader struct{}

// NewLoader creates a new HCL program loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions lists the file extensions this loader accepts.
func (l *Loader) Extensions() []string {
	return []string{".hcl"}
}

// fileRoot decodes the top-level blocks of a program file.
type fileRoot struct {
	Resources []*resourceBlock `hcl:"resource,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type resourceBlock struct {
	Type       string           `hcl:"type,label"`
	Name       string           `hcl:"name,label"`
	DependsOn  []string         `hcl:"depends_on,optional"`
	Properties *propertiesBlock `hcl:"properties,block"`
}

type propertiesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Load parses one HCL program file into declarations.
func (l *Loader) Load(ctx context.Context, path string) (*progfile.File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL program loader started.", "path", path)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	file := &progfile.File{}
	for _, block := range root.Resources {
		decl, err := l.translateResource(block)
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", path, err)
		}
		file.Resources = append(file.Resources, decl)
	}

	logger.Debug("HCL program loading complete.", "path", path, "resources", len(file.Resources))
	return file, nil
}

// translateResource converts one decoded block into the format-agnostic
// model. Property expressions evaluate without an evaluation context, so
// only literal values are accepted.
func (l *Loader) translateResource(block *resourceBlock) (*progfile.ResourceDecl, error) {
	decl := &progfile.ResourceDecl{
		Type:      block.Type,
		Name:      block.Name,
		DependsOn: block.DependsOn,
	}
	if block.Properties == nil {
		return decl, nil
	}

	attrs, diags := block.Properties.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading properties of resource %q: %w", block.Name, diags)
	}
	properties := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		value, valueDiags := attr.Expr.Value(nil)
		if valueDiags.HasErrors() {
			return nil, fmt.Errorf("evaluating property %q of resource %q: %w", name, block.Name, valueDiags)
		}
		native, err := ctyToNative(value)
		if err != nil {
			return nil, fmt.Errorf("property %q of resource %q: %w", name, block.Name, err)
		}
		properties[name] = native
	}
	decl.Properties = properties
	return decl, nil
}
