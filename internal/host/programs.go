package host

import (
	"github.com/stackhost/stackhostgo/internal/hclprog"
	"github.com/stackhost/stackhostgo/internal/progfile"
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/yamlprog"
	"github.com/stackhost/stackhostgo/programs/hello"
)

// builtinPrograms is the definitive list of programs compiled into the
// stackhost binary.
var builtinPrograms = []registry.Program{
	&hello.Program{},
}

// DefaultLoaders lists the program file formats linked into this binary.
func DefaultLoaders() []progfile.Loader {
	return []progfile.Loader{
		hclprog.NewLoader(),
		yamlprog.NewLoader(),
	}
}
