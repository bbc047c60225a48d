package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/stackhost/stackhostgo/internal/ctxlog"
	"github.com/stackhost/stackhostgo/internal/progfile"
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// resolveProgram turns the PROGRAM argument into a runnable entrypoint. A
// registered program name wins over a path on disk; otherwise the entry must
// be a program file or a directory of program files one of the loaders
// accepts. An entry that is neither is an EnvironmentError, raised before
// any run state exists.
func resolveProgram(ctx context.Context, reg *registry.Registry, loaders []progfile.Loader, entry string) (runtime.ProgramFunc, string, error) {
	logger := ctxlog.FromContext(ctx)

	if registered, ok := reg.Lookup(entry); ok {
		logger.Debug("Program resolved from the registry.", "name", entry, "description", registered.Description)
		return registered.Fn, "registered", nil
	}

	if _, err := os.Stat(entry); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", &EnvironmentError{
				Missing:     fmt.Sprintf("program %q was not found: it is neither a registered program nor a path on disk", entry),
				Remediation: remediation(reg, loaders),
			}
		}
		return nil, "", fmt.Errorf("checking program path %q: %w", entry, err)
	}

	file, err := progfile.Discover(ctx, loaders, entry)
	if err != nil {
		var noLoader *progfile.NoLoaderError
		if errors.As(err, &noLoader) {
			return nil, "", &EnvironmentError{
				Missing:     noLoader.Error(),
				Remediation: remediation(reg, loaders),
			}
		}
		return nil, "", fmt.Errorf("loading program %q: %w", entry, err)
	}

	logger.Debug("Program resolved from disk.", "path", entry, "resources", len(file.Resources))
	return progfile.Program(file), "declarative", nil
}

func remediation(reg *registry.Registry, loaders []progfile.Loader) string {
	var extensions []string
	for _, loader := range loaders {
		extensions = append(extensions, loader.Extensions()...)
	}
	lines := []string{
		fmt.Sprintf("Pass a program file or directory (supported extensions: %s).", strings.Join(extensions, ", ")),
	}
	if names := reg.Names(); len(names) > 0 {
		lines = append(lines, fmt.Sprintf("Or use a registered program: %s.", strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n")
}
