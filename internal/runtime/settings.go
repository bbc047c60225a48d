package runtime

import "sync/atomic"

// Settings carries the engine-provided identity and endpoints for the
// current run. The host installs it once, before any program code can
// observe it, and it is treated as read-only from then on.
type Settings struct {
	// Monitor is the resource monitor address. Empty for a local run.
	Monitor string
	// Engine is the orchestration engine address. Empty for a local run.
	Engine string
	// Project and Stack identify whose state this run manipulates.
	Project string
	Stack   string
	// Parallel caps in-flight resource operations. Zero means unbounded.
	Parallel int
	// DryRun is true when the run must not mutate real state.
	DryRun bool
	// Program is the entrypoint exactly as given on the command line.
	Program string
	// Args is the argv the program observes: Program followed by the
	// trailing arguments from the command line.
	Args []string
	// Tracing is the tracing endpoint handed down by the engine. It is
	// recorded for forward compatibility and not otherwise consumed.
	Tracing string
}

var currentSettings atomic.Pointer[Settings]

// Install makes s the process-wide settings for this run.
func Install(s *Settings) {
	currentSettings.Store(s)
}

// Current returns the installed settings, or nil when no run is active.
// Code that can execute during package initialisation must tolerate nil and
// read settings again once the program entrypoint runs.
func Current() *Settings {
	return currentSettings.Load()
}
