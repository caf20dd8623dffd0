package ai

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"

	"github.com/doeshing/typecopilot/internal/domain"
)

var (
	// errStreamDone stops the response reader once the terminal object arrived.
	errStreamDone = errors.New("stream done")
	// errStreamClosed stops the response reader when the consumer closed the stream.
	errStreamClosed = errors.New("stream closed by consumer")
	errMissingDone  = errors.New("response ended without done marker")
)

// classify maps a client error to a service error kind.
func classify(op string, err error) error {
	kind := domain.ErrServiceError
	if isUnavailable(err) {
		kind = domain.ErrServiceUnavailable
	}
	return &domain.GenerationError{Kind: kind, Op: op, Err: err}
}

func isUnavailable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
