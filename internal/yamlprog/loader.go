// Package yamlprog loads declarative programs written in YAML.
package yamlprog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stackhost/stackhostgo/internal/ctxlog"
	"github.com/stackhost/stackhostgo/internal/progfile"
)

// Loader is the YAML implementation of progfile.Loader.
type Loader struct{}

// NewLoader creates a new YAML program loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions lists the file extensions this loader accepts.
func (l *Loader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

type fileDoc struct {
	Resources []resourceDoc `yaml:"resources"`
}

type resourceDoc struct {
	Type       string         `yaml:"type"`
	Name       string         `yaml:"name"`
	Properties map[string]any `yaml:"properties"`
	DependsOn  []string       `yaml:"dependsOn"`
}

// Load parses one YAML program file into declarations.
func (l *Loader) Load(ctx context.Context, path string) (*progfile.File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML program loader started.", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program file: %w", err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", path, err)
	}

	file := &progfile.File{}
	for _, res := range doc.Resources {
		file.Resources = append(file.Resources, &progfile.ResourceDecl{
			Type:       res.Type,
			Name:       res.Name,
			Properties: res.Properties,
			DependsOn:  res.DependsOn,
		})
	}

	logger.Debug("YAML program loading complete.", "path", path, "resources", len(file.Resources))
	return file, nil
}
