package icdapi

import (
	"context"
	"sync"
	"time"
)

// MockCoreSearcher provides a configurable mock implementation of
// CoreSearcher for testing. It allows control over response bodies, timing
// and error conditions to exercise middleware and fallback paths.
type MockCoreSearcher struct {
	mu sync.Mutex

	// Response configuration
	Body          []byte
	Error         error
	ResponseDelay time.Duration
	URL           string

	// Behavior flags
	FailUntilAttempt int // Fail for first N attempts, then succeed
	Panic            any // Panic with this value when non-nil

	// Tracking
	CallCount      int
	LastRequest    SearchRequest
	LastContext    context.Context
	CallTimestamps []time.Time
}

// NewMockCoreSearcher creates a mock that answers with an empty result list.
func NewMockCoreSearcher() *MockCoreSearcher {
	return &MockCoreSearcher{
		Body:           []byte(`{"destinationEntities":[]}`),
		URL:            "http://mock.invalid/icd/entity/search",
		CallTimestamps: make([]time.Time, 0),
	}
}

// DoSearch implements the CoreSearcher interface with configurable behavior.
func (m *MockCoreSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastRequest = req
	m.LastContext = ctx
	m.CallTimestamps = append(m.CallTimestamps, time.Now())
	calls := m.CallCount
	delay := m.ResponseDelay
	m.mu.Unlock()

	if m.Panic != nil {
		panic(m.Panic)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUntilAttempt > 0 && calls <= m.FailUntilAttempt {
		if m.Error != nil {
			return nil, m.Error
		}
		return nil, &testError{message: "simulated failure"}
	}

	if m.Error != nil {
		return nil, m.Error
	}
	return m.Body, nil
}

// Endpoint returns the configured URL.
func (m *MockCoreSearcher) Endpoint() string { return m.URL }

// GetCallCount returns the number of times DoSearch was called.
func (m *MockCoreSearcher) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// GetLastRequest returns the most recent request.
func (m *MockCoreSearcher) GetLastRequest() SearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastRequest
}

// testError provides a simple error type for testing.
type testError struct {
	message string
}

func (e *testError) Error() string {
	return e.message
}
