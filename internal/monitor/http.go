package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/stackhost/stackhostgo/internal/ctxlog"
)

const defaultRequestTimeout = 30 * time.Second

// apiError is the monitor's JSON error payload.
type apiError struct {
	Reason string `json:"reason"`
}

// HTTPClient talks to a resource monitor over its HTTP API. An optional
// in-flight cap bounds concurrent requests; the engine hands the cap down as
// the run's parallelism.
type HTTPClient struct {
	client *resty.Client
	sem    chan struct{}
}

// NewHTTPClient creates a client for the monitor at addr. A positive
// maxInflight bounds concurrent requests; zero or negative leaves them
// unbounded.
func NewHTTPClient(addr string, maxInflight int) *HTTPClient {
	client := resty.New().
		SetBaseURL(addr).
		SetTimeout(defaultRequestTimeout).
		SetHeader("Content-Type", "application/json")

	var sem chan struct{}
	if maxInflight > 0 {
		sem = make(chan struct{}, maxInflight)
	}
	return &HTTPClient{client: client, sem: sem}
}

// RegisterResource declares a resource with the monitor.
func (c *HTTPClient) RegisterResource(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	ctxlog.FromContext(ctx).Debug("Registering resource with monitor.",
		"type", req.Type,
		"name", req.Name,
		"dependencies", len(req.Dependencies),
	)
	var result RegisterResponse
	if err := c.post(ctx, "/v1/resources", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Invoke calls a monitor function.
func (c *HTTPClient) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	ctxlog.FromContext(ctx).Debug("Invoking monitor function.", "token", req.Token)
	var result InvokeResponse
	if err := c.post(ctx, "/v1/invoke", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close releases the client's transport resources.
func (c *HTTPClient) Close() error {
	return c.client.Close()
}

func (c *HTTPClient) post(ctx context.Context, path string, body, result any) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("monitor request %s: %w", path, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	// 4xx means the monitor understood the request and said no; everything
	// else is a transport or server fault.
	if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() < http.StatusInternalServerError {
		reason := apiErr.Reason
		if reason == "" {
			reason = fmt.Sprintf("monitor rejected the request (status %d)", resp.StatusCode())
		}
		return &RejectedError{Reason: reason}
	}
	return fmt.Errorf("monitor request %s failed with status %d", path, resp.StatusCode())
}

func (c *HTTPClient) acquire(ctx context.Context) error {
	if c.sem == nil {
		return nil
	}
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *HTTPClient) release() {
	if c.sem == nil {
		return
	}
	<-c.sem
}
