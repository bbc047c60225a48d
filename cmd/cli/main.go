package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stackhost/stackhostgo/internal/cli"
	"github.com/stackhost/stackhostgo/internal/host"
)

// main is the entrypoint for the stackhost binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	code, err := run(os.Stdout, os.Stderr, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

// run encapsulates the process logic for easier testing: parse the
// invocation, build the host, drive the run, map the outcome onto an exit
// code. The engine only ever sees zero or one.
func run(outW, errW io.Writer, args []string) (code int, err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return 1, err
	}
	if shouldExit {
		return 0, nil
	}

	// Startup failures panic inside host.New; recover them into a clean
	// diagnostic instead of a crash dump.
	defer func() {
		if r := recover(); r != nil {
			code = 1
			var envErr *host.EnvironmentError
			if rErr, ok := r.(error); ok && errors.As(rErr, &envErr) {
				err = envErr
				return
			}
			err = fmt.Errorf("a critical startup error occurred: %v", r)
		}
	}()

	h := host.New(outW, errW, cfg, nil)

	outcome, err := h.Run(context.Background())
	if err != nil {
		return 1, fmt.Errorf("run teardown failed: %w", err)
	}
	return outcome.ExitCode(), nil
}
