package host

import "errors"

// Config holds everything a Host needs to run one program. The engine hands
// most of it down through command line flags.
type Config struct {
	// Project and Stack identify whose state the run manipulates.
	Project string
	Stack   string
	// Parallel caps in-flight resource operations. Zero means unbounded.
	Parallel int
	// DryRun is true when the run must not mutate real state.
	DryRun bool
	// Pwd is an optional working directory to enter before running.
	Pwd string
	// Monitor is the resource monitor address. Empty selects the in-process
	// monitor for local runs.
	Monitor string
	// Engine is the orchestration engine address used for failure reports.
	Engine string
	// Tracing is the tracing endpoint handed down by the engine.
	Tracing string
	// Program is the entrypoint: a registered program name, a program file,
	// or a directory of program files.
	Program string
	// Args are the trailing command line arguments passed through to the
	// program.
	Args []string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Program == "" {
		return nil, errors.New("PROGRAM is a required argument and cannot be empty")
	}
	if cfg.Parallel < 0 {
		return nil, errors.New("parallel cannot be negative")
	}

	// Future validations for other fields can be added here.

	return &cfg, nil
}
