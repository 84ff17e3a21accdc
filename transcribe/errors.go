package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// FailureKind classifies transcription failures.
type FailureKind int

const (
	// KindUnknown indicates an unclassified failure.
	KindUnknown FailureKind = iota
	// KindTimeout indicates a connect- or receive-phase timeout.
	KindTimeout
	// KindConnRefused indicates the backend refused the connection.
	KindConnRefused
	// KindServer indicates a non-200 response from the backend.
	KindServer
	// KindMalformed indicates a 200 response whose body could not be used.
	KindMalformed
)

// String returns the failure kind name.
func (k FailureKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnRefused:
		return "connection_refused"
	case KindServer:
		return "server_error"
	case KindMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Failure is a classified transcription error. Every error returned by
// the Client is a *Failure, so callers can always switch on Kind.
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind
	// Status is the HTTP status code (0 for transport-level failures).
	Status int
	// Message describes the failure in caller-facing terms.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Status > 0 {
		return fmt.Sprintf("transcribe: %s (HTTP %d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("transcribe: %s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// classifyTransport converts a transport-level error from the HTTP
// client into a Failure. Timeout messages identify which phase timed
// out, since "backend not running" and "backend too slow" need
// different user action.
func classifyTransport(err error) *Failure {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Failure{
			Kind:    KindConnRefused,
			Message: "connection refused: is the transcription server running?",
			Err:     err,
		}
	}

	var netErr net.Error
	timedOut := errors.As(err, &netErr) && netErr.Timeout()
	if !timedOut {
		timedOut = errors.Is(err, context.DeadlineExceeded)
	}
	if timedOut {
		if isDialPhase(err) {
			return &Failure{
				Kind:    KindTimeout,
				Message: "connection timed out: check if the server is running",
				Err:     err,
			}
		}
		return &Failure{
			Kind:    KindTimeout,
			Message: "response too slow: the audio may be too large",
			Err:     err,
		}
	}

	return &Failure{
		Kind:    KindUnknown,
		Message: err.Error(),
		Err:     err,
	}
}

// isDialPhase reports whether the error occurred while establishing
// the connection rather than during the exchange.
func isDialPhase(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// IsTimeout checks if an error is a classified timeout failure.
func IsTimeout(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindTimeout
}

// IsConnRefused checks if an error is a classified refused connection.
func IsConnRefused(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindConnRefused
}

// IsServerError checks if an error is a classified backend error.
func IsServerError(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindServer
}

// IsMalformed checks if an error is a classified malformed response.
func IsMalformed(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindMalformed
}
