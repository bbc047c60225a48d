package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/stackhost/stackhostgo/internal/ctxlog"
	"github.com/stackhost/stackhostgo/internal/englog"
	"github.com/stackhost/stackhostgo/internal/envconfig"
	"github.com/stackhost/stackhostgo/internal/monitor"
	"github.com/stackhost/stackhostgo/internal/progfile"
	"github.com/stackhost/stackhostgo/internal/registry"
	"github.com/stackhost/stackhostgo/internal/runtime"
)

// Host encapsulates one program run: its dependencies, configuration, and
// lifecycle.
type Host struct {
	outW     io.Writer
	errW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	settings *runtime.Settings
	store    *runtime.ConfigStore
	monitor  monitor.Client
	diag     englog.Logger
	program  runtime.ProgramFunc
	registry *registry.Registry
}

// Options are the substitutable parts of a Host. The zero value selects
// production defaults; tests override individual fields.
type Options struct {
	// Loaders parse declarative program files. Defaults to DefaultLoaders.
	Loaders []progfile.Loader
	// Programs are the built-in programs to register. Defaults to the
	// programs compiled into the binary.
	Programs []registry.Program
	// Monitor overrides the resource monitor client chosen from the config.
	Monitor monitor.Client
	// Diagnostics overrides the engine-facing sink chosen from the config.
	Diagnostics englog.Logger
	// LookupEnv substitutes the process environment for configuration
	// reading. Defaults to os.LookupEnv.
	LookupEnv envconfig.LookupFunc
	// ConfigBackend wraps the host's config store into the facade the
	// injection writes through. Defaults to the store itself, which
	// supports bulk installation.
	ConfigBackend func(*runtime.ConfigStore) runtime.ConfigBackend
}

// New is the constructor for a program run. It returns a fully initialized
// Host with the process-wide settings and configuration already installed.
// Startup failures panic; entrypoints recover them to exit cleanly. The
// program is resolved before any run state is built, so a missing program
// can never leave half-installed settings behind.
func New(outW, errW io.Writer, cfg *Config, opts *Options) *Host {
	if opts == nil {
		opts = &Options{}
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	programs := opts.Programs
	if len(programs) == 0 {
		programs = builtinPrograms
	}
	for _, program := range programs {
		program.Register(reg)
	}
	logger.Debug("All built-in programs registered.", "count", len(programs))

	loaders := opts.Loaders
	if len(loaders) == 0 {
		loaders = DefaultLoaders()
	}

	program, kind, err := resolveProgram(ctx, reg, loaders, cfg.Program)
	if err != nil {
		panic(err)
	}
	logger.Debug("Program resolved.", "program", cfg.Program, "kind", kind)

	settings := &runtime.Settings{
		Monitor:  cfg.Monitor,
		Engine:   cfg.Engine,
		Project:  cfg.Project,
		Stack:    cfg.Stack,
		Parallel: cfg.Parallel,
		DryRun:   cfg.DryRun,
		Program:  cfg.Program,
		Args:     append([]string{cfg.Program}, cfg.Args...),
		Tracing:  cfg.Tracing,
	}
	runtime.Install(settings)
	logger.Debug("Run settings installed.", "project", cfg.Project, "stack", cfg.Stack, "parallel", cfg.Parallel, "dryRun", cfg.DryRun)

	env, err := envconfig.Read(opts.LookupEnv)
	if err != nil {
		// The engine handed down configuration the host cannot read. A
		// fatal startup error, same as a malformed flag.
		panic(fmt.Errorf("failed to read config environment: %w", err))
	}
	store := runtime.NewConfigStore()
	backend := runtime.ConfigBackend(store)
	if opts.ConfigBackend != nil {
		backend = opts.ConfigBackend(store)
	}
	runtime.InstallConfig(backend, env.Values, env.SecretKeys)
	runtime.InstallStore(store)
	logger.Debug("Configuration injected.", "keys", store.Len(), "secretKeys", len(env.SecretKeys))

	client := opts.Monitor
	if client == nil {
		if cfg.Monitor != "" {
			client = monitor.NewHTTPClient(cfg.Monitor, cfg.Parallel)
		} else {
			logger.Debug("No monitor address given; using the in-process monitor.")
			client = monitor.NewInMemory()
		}
	}

	diag := opts.Diagnostics
	if diag == nil {
		diag = englog.ForEngine(cfg.Engine, logger)
	}

	return &Host{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		cfg:      cfg,
		settings: settings,
		store:    store,
		monitor:  client,
		diag:     diag,
		program:  program,
		registry: reg,
	}
}

// Registry returns the host's program registry. This is primarily for
// testing.
func (h *Host) Registry() *registry.Registry {
	return h.registry
}
