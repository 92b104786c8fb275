package icdapi

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ahrav/go-icdmatch/internal/ports"
)

// ErrMissingCredential is returned by Search when no token is configured.
// It matches ports.ErrAuthenticationFailed under errors.Is.
var ErrMissingCredential = fmt.Errorf("icd api token not configured: %w", ports.ErrAuthenticationFailed)

// ErrorType represents the category of a lookup failure.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates a rejected or missing credential.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates that a rate limit has been exceeded.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates a malformed request or invalid parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates that the endpoint or release does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a problem on the service's end.
	ErrorTypeServerError
	// ErrorTypeNetwork indicates a client-side network problem.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates that the request timed out.
	ErrorTypeTimeout
	// ErrorTypeInvalidResponse indicates a body that is not valid JSON or is too large.
	ErrorTypeInvalidResponse
)

// String returns the label used in logs and metrics.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// LookupError is a classified failure of a remote search.
type LookupError struct {
	// Type classifies the error into a standard category.
	Type ErrorType
	// Service names the remote service that produced the error.
	Service string
	// StatusCode holds the HTTP status code, if a response was received.
	StatusCode int
	// Message is a short description, possibly a snippet of the response body.
	Message string
	// WrappedError holds the underlying cause.
	WrappedError error
}

// Error returns a string representation of the LookupError.
func (e *LookupError) Error() string {
	base := fmt.Sprintf("%s error", e.Service)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Type != ErrorTypeUnknown {
		base += fmt.Sprintf(" [%s]", e.Type)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap returns the underlying cause.
func (e *LookupError) Unwrap() error { return e.WrappedError }

// Is maps the error type onto the shared infrastructure sentinels so callers
// can test with errors.Is(err, ports.ErrTimeout) and friends.
func (e *LookupError) Is(target error) bool {
	switch target {
	case ports.ErrAuthenticationFailed:
		return e.Type == ErrorTypeAuthentication
	case ports.ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	case ports.ErrServiceUnavailable:
		return e.Type == ErrorTypeServerError || e.Type == ErrorTypeNetwork
	case ports.ErrTimeout:
		return e.Type == ErrorTypeTimeout
	case ports.ErrInvalidResponse:
		return e.Type == ErrorTypeInvalidResponse
	}
	return false
}

// NewLookupError creates a new LookupError.
func NewLookupError(service string, errType ErrorType, statusCode int, message string, wrapped error) *LookupError {
	return &LookupError{
		Type:         errType,
		Service:      service,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// ErrorClassifier turns transport failures into LookupError values.
type ErrorClassifier struct {
	// Service is the name stamped on every produced error.
	Service string
}

// ClassifyHTTPError classifies a non-2xx response by its status code.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *LookupError {
	var errType ErrorType

	switch statusCode {
	case 401, 403:
		errType = ErrorTypeAuthentication
		if message == "" {
			message = fmt.Sprintf("%s authentication failed", ec.Service)
		}
	case 429:
		errType = ErrorTypeRateLimit
		if message == "" {
			message = fmt.Sprintf("%s rate limit exceeded", ec.Service)
		}
	case 400:
		errType = ErrorTypeBadRequest
	case 404:
		errType = ErrorTypeNotFound
	default:
		switch {
		case statusCode >= 500:
			errType = ErrorTypeServerError
		case statusCode >= 400:
			errType = ErrorTypeBadRequest
		default:
			errType = ErrorTypeUnknown
		}
	}

	return NewLookupError(ec.Service, errType, statusCode, message, err)
}

// ClassifyTransportError classifies an error raised before a response was
// received, such as a deadline, a cancellation or a dial failure.
func (ec *ErrorClassifier) ClassifyTransportError(err error) *LookupError {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewLookupError(ec.Service, ErrorTypeTimeout, 0, "deadline exceeded", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewLookupError(ec.Service, ErrorTypeTimeout, 0, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewLookupError(ec.Service, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewLookupError(ec.Service, ErrorTypeNetwork, 0, "", err)
	}
}
