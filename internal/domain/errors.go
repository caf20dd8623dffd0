package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by the correction pipeline.
var (
	// ErrCaptureEmpty means no text was obtained from the foreground application.
	ErrCaptureEmpty = errors.New("no text captured")
	// ErrServiceUnavailable means the generation service could not be reached.
	ErrServiceUnavailable = errors.New("generation service unavailable")
	// ErrServiceError means the service answered with a failure or a malformed payload.
	ErrServiceError = errors.New("generation service error")
	// ErrClientInit means the generation client could not be constructed.
	ErrClientInit = errors.New("generation client init failed")
	// ErrBusy means another correction already owns the clipboard and input channel.
	ErrBusy = errors.New("correction already in flight")
)

// GenerationError carries the kind of a generation failure and its cause.
type GenerationError struct {
	Kind error
	Op   string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *GenerationError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Outcome names how a correction ended, for logs, metrics and history.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, ErrCaptureEmpty):
		return "capture_empty"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrServiceError):
		return "service_error"
	default:
		return "failed"
	}
}
