// Package host contains the core run lifecycle. It defines the Host struct,
// its configuration, and the startup-run-teardown sequence, decoupled from
// any specific entrypoint like a CLI.
//
// A Host exists for exactly one program run. Construction resolves the
// program, installs the process-wide run settings and configuration, and
// picks the monitor and engine transports; Run then acquires the event loop,
// drives the program under supervision, classifies the result, and tears
// everything down.
package host
