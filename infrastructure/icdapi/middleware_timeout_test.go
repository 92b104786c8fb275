package icdapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-icdmatch/internal/ports"
)

// TestTimeoutMiddleware_SucceedsWithinTimeout tests that the timeout middleware
// allows a search to succeed if it completes within the specified timeout.
func TestTimeoutMiddleware_SucceedsWithinTimeout(t *testing.T) {
	mock := NewMockCoreSearcher()
	mock.ResponseDelay = 10 * time.Millisecond
	wrapped := TimeoutMiddleware(100 * time.Millisecond)(mock)

	body, err := wrapped.DoSearch(context.Background(), SearchRequest{Query: "fever"})

	require.NoError(t, err, "search should succeed within timeout")
	assert.Equal(t, mock.Body, body, "body should match")
	assert.Equal(t, 1, mock.GetCallCount(), "should call underlying implementation once")
}

// TestTimeoutMiddleware_FailsWhenExceedingTimeout tests that the timeout middleware
// classifies an expired search as a timeout.
func TestTimeoutMiddleware_FailsWhenExceedingTimeout(t *testing.T) {
	mock := NewMockCoreSearcher()
	mock.ResponseDelay = 200 * time.Millisecond
	timeout := 50 * time.Millisecond
	wrapped := TimeoutMiddleware(timeout)(mock)

	start := time.Now()
	_, err := wrapped.DoSearch(context.Background(), SearchRequest{Query: "fever"})
	duration := time.Since(start)

	require.Error(t, err, "search should time out")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "error should wrap deadline exceeded: %v", err)
	assert.True(t, errors.Is(err, ports.ErrTimeout), "error should match ports.ErrTimeout: %v", err)

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, ErrorTypeTimeout, lookupErr.Type)

	assert.GreaterOrEqual(t, duration, timeout, "should time out after configured duration")
	assert.Less(t, duration, timeout+100*time.Millisecond, "should not wait much longer than timeout")
}

// TestTimeoutMiddleware_RespectsExistingContextTimeout tests that a shorter
// deadline on the caller's context wins.
func TestTimeoutMiddleware_RespectsExistingContextTimeout(t *testing.T) {
	mock := NewMockCoreSearcher()
	mock.ResponseDelay = 200 * time.Millisecond
	middlewareTimeout := 300 * time.Millisecond
	wrapped := TimeoutMiddleware(middlewareTimeout)(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := wrapped.DoSearch(ctx, SearchRequest{Query: "fever"})
	duration := time.Since(start)

	require.Error(t, err, "search should time out")
	assert.True(t, errors.Is(err, ports.ErrTimeout))
	assert.Less(t, duration, middlewareTimeout, "should time out before middleware timeout")
}

// TestTimeoutMiddleware_PassesThroughErrors tests that errors unrelated to the
// deadline are returned unchanged.
func TestTimeoutMiddleware_PassesThroughErrors(t *testing.T) {
	mock := NewMockCoreSearcher()
	want := errors.New("service error")
	mock.Error = want
	wrapped := TimeoutMiddleware(time.Second)(mock)

	_, err := wrapped.DoSearch(context.Background(), SearchRequest{})

	assert.Same(t, want, err)
	assert.Equal(t, mock.Endpoint(), wrapped.Endpoint(), "should pass through Endpoint")
}
