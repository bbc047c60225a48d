// Package cli is responsible for parsing command-line arguments, validating
// engine-provided input, and handling process-level concerns like exit
// codes. It translates CLI flags into the host's internal configuration.
package cli
