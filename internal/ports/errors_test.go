package ports

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSourceError tests the functionality of the SourceError error type.
// It verifies message formatting, field access and unwrapping.
func TestSourceError(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		operation string
		err       error
		wantMsg   string
	}{
		{
			name:      "missing credential",
			source:    "icdapi",
			operation: "Search",
			err:       ErrAuthenticationFailed,
			wantMsg:   "source error: source=icdapi, operation=Search, err=authentication failed",
		},
		{
			name:      "malformed payload",
			source:    "icdapi",
			operation: "Decode",
			err:       ErrInvalidResponse,
			wantMsg:   "source error: source=icdapi, operation=Decode, err=invalid response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSourceError(tt.source, tt.operation, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.source, err.Source)
			assert.Equal(t, tt.operation, err.Operation)
			assert.True(t, errors.Is(err, tt.err))
		})
	}
}

// TestSourceError_IsTransient tests that only network and service failures
// are classified as transient.
func TestSourceError_IsTransient(t *testing.T) {
	t.Run("transient errors", func(t *testing.T) {
		for _, baseErr := range []error{ErrRateLimited, ErrServiceUnavailable, ErrTimeout} {
			err := NewSourceError("icdapi", "Search", baseErr)
			assert.True(t, err.IsTransient(), "%v should be transient", baseErr)
		}
	})

	t.Run("permanent errors", func(t *testing.T) {
		for _, baseErr := range []error{ErrAuthenticationFailed, ErrInvalidResponse, errors.New("other")} {
			err := NewSourceError("icdapi", "Search", baseErr)
			assert.False(t, err.IsTransient(), "%v should not be transient", baseErr)
		}
	})
}

// TestMetricsError tests the functionality of the MetricsError error type.
func TestMetricsError(t *testing.T) {
	err := NewMetricsError("icdmatch_lookups_total", "WriteTextfile", errors.New("permission denied"))

	assert.Equal(t, "metrics error: operation=WriteTextfile, metric=icdmatch_lookups_total, err=permission denied", err.Error())
	assert.Equal(t, "icdmatch_lookups_total", err.Metric)
	assert.Equal(t, "WriteTextfile", err.Operation)
}

// TestConfigError tests the functionality of the ConfigError error type.
func TestConfigError(t *testing.T) {
	err := NewConfigError("remote.base_url", ErrConfigNotFound)

	assert.Equal(t, "config error: key=remote.base_url, err=configuration not found", err.Error())
	assert.Equal(t, "remote.base_url", err.ConfigKey)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

// TestCommonInfrastructureErrors tests that the common infrastructure errors are defined.
func TestCommonInfrastructureErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrAuthenticationFailed, "authentication failed"},
		{ErrRateLimited, "rate limited"},
		{ErrServiceUnavailable, "service unavailable"},
		{ErrTimeout, "operation timed out"},
		{ErrInvalidResponse, "invalid response"},
		{ErrConfigNotFound, "configuration not found"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

// TestErrorUnwrapping tests that all custom error types in the package support unwrapping.
func TestErrorUnwrapping(t *testing.T) {
	baseErr := errors.New("underlying error")

	errorList := []interface {
		error
		Unwrap() error
	}{
		NewSourceError("source", "op", baseErr),
		NewMetricsError("metric", "op", baseErr),
		NewConfigError("key", baseErr),
	}

	for _, err := range errorList {
		unwrapped := err.Unwrap()
		assert.Equal(t, baseErr, unwrapped, "%T should unwrap to base error", err)
		assert.True(t, errors.Is(err, baseErr), "%T should match base error with Is", err)
	}
}
