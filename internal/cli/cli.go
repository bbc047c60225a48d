package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/stackhost/stackhostgo/internal/host"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError builds the ExitError for invalid arguments. Argument problems
// and run failures share exit code 1; the engine only distinguishes zero
// from non-zero.
func usageError(message string) *ExitError {
	return &ExitError{Code: 1, Message: message}
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the process should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*host.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("stackhost", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
StackHost - runs one program against a resource monitor on behalf of an
orchestration engine.

Usage:
  stackhost [options] PROGRAM [ARGS...]

Arguments:
  PROGRAM
    A registered program name, a program file (.hcl, .yaml, .yml), or a
    directory of program files.
  ARGS
    Passed through to the program unchanged.

Options:
`)
		flagSet.PrintDefaults()
	}

	projectFlag := flagSet.String("project", "", "Name of the project the run belongs to.")
	stackFlag := flagSet.String("stack", "", "Name of the stack the run manipulates.")
	parallelFlag := flagSet.String("parallel", "", "Maximum in-flight resource operations. Required; 0 means unbounded.")
	dryRunFlag := flagSet.String("dry_run", "", "Pass exactly 'true' for a preview run; anything else runs for real.")
	pwdFlag := flagSet.String("pwd", "", "Working directory to enter before running the program.")
	monitorFlag := flagSet.String("monitor", "", "Address of the resource monitor. Empty selects the in-process monitor.")
	engineFlag := flagSet.String("engine", "", "Address of the orchestration engine for failure reports.")
	tracingFlag := flagSet.String("tracing", "", "Tracing endpoint handed down by the engine.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, usageError(err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	// Flag parsing stops at the first positional argument, so everything
	// after PROGRAM reaches the program verbatim, flags included.
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, false, usageError("PROGRAM is a required argument")
	}
	program := flagSet.Arg(0)
	programArgs := flagSet.Args()[1:]
	slog.Debug("Program argument determined.", "program", program, "args", len(programArgs))

	if *parallelFlag == "" {
		flagSet.Usage()
		return nil, false, usageError("--parallel is a required flag")
	}
	parallel, err := strconv.Atoi(*parallelFlag)
	if err != nil {
		return nil, false, usageError(fmt.Sprintf("invalid --parallel value %q: must be an integer", *parallelFlag))
	}

	// Strictly the literal "true"; "1", "TRUE" and friends all mean false.
	dryRun := *dryRunFlag == "true"

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := host.NewConfig(host.Config{
		Project:   *projectFlag,
		Stack:     *stackFlag,
		Parallel:  parallel,
		DryRun:    dryRun,
		Pwd:       *pwdFlag,
		Monitor:   *monitorFlag,
		Engine:    *engineFlag,
		Tracing:   *tracingFlag,
		Program:   program,
		Args:      programArgs,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, usageError(err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "program", program)
	return config, false, nil
}
