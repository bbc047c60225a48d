// Package englog delivers failure reports to whoever launched the run: the
// orchestration engine when one is attached, the local diagnostic stream
// otherwise.
package englog

import (
	"log/slog"
	"net/url"
)

// Logger is the engine-facing diagnostic sink. Hosts report each failed run
// through exactly one Error call.
type Logger interface {
	Error(message string)
}

// SlogSink reports through a local structured logger. Engine-less runs use
// this sink.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps a structured logger as a diagnostic sink. A nil logger
// falls back to the process default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Error reports one failure message.
func (s *SlogSink) Error(message string) {
	s.logger.Error(message)
}

// ForEngine selects the sink for an engine address: a socket transport for
// ws and wss addresses, the local logger for everything else including the
// empty address of a local run.
func ForEngine(addr string, local *slog.Logger) Logger {
	if local == nil {
		local = slog.Default()
	}
	if addr == "" {
		return NewSlogSink(local)
	}
	parsed, err := url.Parse(addr)
	if err != nil {
		local.Warn("Engine address did not parse; reporting locally.", "addr", addr, "error", err)
		return NewSlogSink(local)
	}
	switch parsed.Scheme {
	case "ws", "wss":
		return NewSocketSink(addr, local)
	default:
		return NewSlogSink(local)
	}
}
