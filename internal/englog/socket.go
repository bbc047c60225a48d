package englog

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// diagnosticEvent is the event name the engine listens on.
const diagnosticEvent = "diagnostic"

const defaultConnectTimeout = 10 * time.Second

// SocketSink ships diagnostics to the engine over socket.io. The connection
// is established lazily on the first report; if it cannot be brought up the
// sink degrades to the local logger so no report is ever lost.
type SocketSink struct {
	addr     string
	timeout  time.Duration
	fallback *slog.Logger

	mu         sync.Mutex
	io         *socket.Socket
	broken     bool
	connectErr error
}

// NewSocketSink creates a sink for the engine at addr (a ws or wss URL). A
// nil fallback logger defaults to the process logger.
func NewSocketSink(addr string, fallback *slog.Logger) *SocketSink {
	if fallback == nil {
		fallback = slog.Default()
	}
	return &SocketSink{
		addr:     addr,
		timeout:  defaultConnectTimeout,
		fallback: fallback,
	}
}

// SetConnectTimeout adjusts how long the first report waits for the engine
// connection before degrading to the local logger.
func (s *SocketSink) SetConnectTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Error reports one failure message to the engine. When the transport is
// down the message goes to the local logger instead.
func (s *SocketSink) Error(message string) {
	io, err := s.connect()
	if err != nil {
		s.fallback.Warn("Engine log transport unavailable; reporting locally.", "addr", s.addr, "error", err)
		s.fallback.Error(message)
		return
	}
	io.Emit(diagnosticEvent, map[string]any{"severity": "error", "message": message})
}

// Close tears the engine connection down if one was established.
func (s *SocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.io != nil {
		s.io.Disconnect()
		s.io = nil
	}
	return nil
}

// connect dials the engine once. Later calls reuse the socket or the cached
// failure; a sink never retries a broken transport mid-run.
func (s *SocketSink) connect() (*socket.Socket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.io != nil {
		return s.io, nil
	}
	if s.broken {
		return nil, s.connectErr
	}

	parsedURL, err := url.Parse(s.addr)
	if err != nil {
		return nil, s.fail(fmt.Errorf("failed to parse engine address: %w", err))
	}
	scheme := "http"
	if parsedURL.Scheme == "wss" {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		connectErr := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				connectErr = e
			} else {
				connectErr = fmt.Errorf("connect_error: %v", errs[0])
			}
		}
		select {
		case connected <- connectErr:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, s.fail(err)
		}
	case <-time.After(s.timeout):
		io.Disconnect()
		return nil, s.fail(fmt.Errorf("timed out waiting for engine connection after %s", s.timeout))
	}

	s.io = io
	return io, nil
}

func (s *SocketSink) fail(err error) error {
	s.broken = true
	s.connectErr = err
	return err
}
