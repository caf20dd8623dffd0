// Package ai is the generation client for the local text-generation service.
//
// It wraps the Ollama API client and exposes the two request shapes the correction
// pipeline needs:
//   - GenerateSync: one blocking call returning the complete text
//   - GenerateStream: a lazy, pull-based sequence of fragments
//
// Every invocation makes exactly one attempt. Transport failures, including a body
// cut off by an expired deadline, are reported as domain.ErrServiceUnavailable.
// Everything else (non-success status, malformed payload, a body that ends early
// with time to spare) is domain.ErrServiceError.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// Client talks to the generation service over HTTP.
// It is safe for concurrent use.
type Client struct {
	api     *api.Client
	host    string
	timeout time.Duration
}

// NewClient builds a client for the service at host. A zero timeout means requests
// are bounded only by the caller's context.
func NewClient(host string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(host) == "" {
		host = domain.DefaultServiceHost
	}
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: parse host %q: %v", domain.ErrClientInit, host, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: host %q must use http or https", domain.ErrClientInit, host)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: host %q has no address", domain.ErrClientInit, host)
	}

	return &Client{
		api:     api.NewClient(base, &http.Client{Timeout: timeout}),
		host:    base.String(),
		timeout: timeout,
	}, nil
}

// Host returns the service base URL.
func (c *Client) Host() string {
	return c.host
}

// GenerateSync sends req with streaming disabled and returns the whole response.
func (c *Client) GenerateSync(ctx context.Context, req domain.GenerationRequest) (string, error) {
	var (
		out  strings.Builder
		done bool
	)
	started := time.Now()
	err := c.api.Generate(ctx, toGenerateRequest(req, false), func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		if resp.Done {
			done = true
			return errStreamDone
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStreamDone) {
		return "", classify("generate", err)
	}
	if !done {
		return "", c.truncated(ctx, "generate", started)
	}
	return out.String(), nil
}

// GenerateStream returns a lazy fragment stream for req. The request is sent when
// the stream is first advanced.
func (c *Client) GenerateStream(ctx context.Context, req domain.GenerationRequest) (ports.FragmentStream, error) {
	wire := toGenerateRequest(req, true)
	var started time.Time
	return newFragmentStream(
		func(yield func(api.GenerateResponse) error) error {
			started = time.Now()
			return c.api.Generate(ctx, wire, api.GenerateResponseFunc(yield))
		},
		func() error { return c.truncated(ctx, "generate stream", started) },
	), nil
}

// truncated classifies a response body that ended before the done object. The
// API client drops body read errors, so an expired context or client timeout is
// the only evidence of a transport failure; anything else is a service error.
func (c *Client) truncated(ctx context.Context, op string, started time.Time) error {
	switch {
	case ctx.Err() != nil:
		return &domain.GenerationError{Kind: domain.ErrServiceUnavailable, Op: op, Err: fmt.Errorf("%w: %w", errMissingDone, ctx.Err())}
	case c.timeout > 0 && time.Since(started) >= c.timeout:
		return &domain.GenerationError{Kind: domain.ErrServiceUnavailable, Op: op, Err: fmt.Errorf("%w: client timeout %s exceeded", errMissingDone, c.timeout)}
	default:
		return &domain.GenerationError{Kind: domain.ErrServiceError, Op: op, Err: errMissingDone}
	}
}

// ListModels returns the installed model names in the order the service reports them.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, classify("list models", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Heartbeat checks that the service answers at all.
func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.api.Heartbeat(ctx); err != nil {
		return classify("heartbeat", err)
	}
	return nil
}

// Version returns the service version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	v, err := c.api.Version(ctx)
	if err != nil {
		return "", classify("version", err)
	}
	return v, nil
}

func toGenerateRequest(req domain.GenerationRequest, stream bool) *api.GenerateRequest {
	wire := &api.GenerateRequest{
		Model:     req.Model,
		Prompt:    req.Prompt,
		Stream:    &stream,
		KeepAlive: &api.Duration{Duration: req.KeepAlive},
	}
	return wire
}

var (
	_ ports.Generator    = (*Client)(nil)
	_ ports.ModelLister  = (*Client)(nil)
	_ ports.ServiceProbe = (*Client)(nil)
)
