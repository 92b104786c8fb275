package icdapi

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-icdmatch/internal/ports"
)

func TestLookupError_Error(t *testing.T) {
	err := NewLookupError("icdapi", ErrorTypeAuthentication, 401, "invalid token", errors.New("cause"))
	assert.Equal(t, "icdapi error (HTTP 401) [authentication]: invalid token: cause", err.Error())

	bare := NewLookupError("icdapi", ErrorTypeUnknown, 0, "", nil)
	assert.Equal(t, "icdapi error", bare.Error())
}

func TestLookupError_Is(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		sentinel error
	}{
		{ErrorTypeAuthentication, ports.ErrAuthenticationFailed},
		{ErrorTypeRateLimit, ports.ErrRateLimited},
		{ErrorTypeServerError, ports.ErrServiceUnavailable},
		{ErrorTypeNetwork, ports.ErrServiceUnavailable},
		{ErrorTypeTimeout, ports.ErrTimeout},
		{ErrorTypeInvalidResponse, ports.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			err := NewLookupError("icdapi", tt.errType, 0, "", nil)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.NotErrorIs(t, err, ports.ErrConfigNotFound)
		})
	}

	notFound := NewLookupError("icdapi", ErrorTypeNotFound, 404, "", nil)
	assert.NotErrorIs(t, notFound, ports.ErrServiceUnavailable)
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

var _ net.Error = timeoutNetError{}

func TestErrorClassifier_ClassifyTransportError(t *testing.T) {
	ec := &ErrorClassifier{Service: "icdapi"}

	assert.Equal(t, ErrorTypeTimeout, ec.ClassifyTransportError(context.DeadlineExceeded).Type)
	assert.Equal(t, ErrorTypeTimeout, ec.ClassifyTransportError(timeoutNetError{}).Type)
	assert.Equal(t, ErrorTypeNetwork, ec.ClassifyTransportError(context.Canceled).Type)
	assert.Equal(t, ErrorTypeNetwork, ec.ClassifyTransportError(errors.New("dial tcp: refused")).Type)

	existing := NewLookupError("icdapi", ErrorTypeServerError, 503, "", nil)
	assert.Same(t, existing, ec.ClassifyTransportError(existing), "classified errors are kept")
}

func TestErrorClassifier_ClassifyHTTPError(t *testing.T) {
	ec := &ErrorClassifier{Service: "icdapi"}

	auth := ec.ClassifyHTTPError(401, "", nil)
	assert.Equal(t, ErrorTypeAuthentication, auth.Type)
	assert.Equal(t, "icdapi authentication failed", auth.Message)

	assert.Equal(t, ErrorTypeServerError, ec.ClassifyHTTPError(599, "", nil).Type)
	assert.Equal(t, ErrorTypeUnknown, ec.ClassifyHTTPError(302, "", nil).Type)
}
