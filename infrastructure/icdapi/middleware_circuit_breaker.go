package icdapi

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen indicates that the circuit breaker rejected a search
// without contacting the service.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of a circuit breaker.
type CircuitBreakerState int

// Circuit breaker states.
const (
	// StateClosed allows all requests to pass through normally.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects all requests immediately.
	// The circuit enters this state after too many consecutive failures.
	StateOpen

	// StateHalfOpen lets one request through to test recovery.
	// The circuit transitions to this state after the cooldown period expires.
	StateHalfOpen
)

// String returns the state name.
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerMetrics enables observability for circuit breaker behavior.
type CircuitBreakerMetrics interface {
	// RecordState updates the current circuit breaker state metric.
	RecordState(state CircuitBreakerState)

	// RecordTrip increments the counter of rejected requests.
	RecordTrip()

	// RecordSuccess increments the successful request counter.
	RecordSuccess()

	// RecordFailure increments the failed request counter.
	RecordFailure()
}

// CircuitBreaker tracks consecutive failures and opens once they reach the
// threshold, then tests recovery through a half-open state.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitBreakerState
	failureCount     int
	maxFailures      int
	cooldownDuration time.Duration
	lastFailure      time.Time
	now              func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the specified configuration.
// The circuit opens after maxFailures consecutive errors and stays open
// for cooldownDuration before testing recovery.
func NewCircuitBreaker(maxFailures int, cooldownDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		maxFailures:      maxFailures,
		cooldownDuration: cooldownDuration,
		now:              time.Now,
	}
}

// Call executes fn through the circuit breaker.
// If the circuit is open, this returns ErrCircuitOpen immediately.
// Otherwise, it executes fn and updates circuit state based on the result.
// The lock is not held while fn runs, so admitted calls proceed
// concurrently. In the half-open state only one trial call is admitted.
func (cb *CircuitBreaker) Call(fn func() error) error {
	trial, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()
	cb.record(trial, err)
	return err
}

// admit decides whether a call may proceed. trial is true for the single
// call let through after the cooldown.
func (cb *CircuitBreaker) admit() (trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.cooldownDuration {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		return true, nil
	case StateHalfOpen:
		return false, ErrCircuitOpen
	default:
		return false, nil
	}
}

func (cb *CircuitBreaker) record(trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastFailure = cb.now()
		if trial || cb.failureCount >= cb.maxFailures {
			cb.state = StateOpen
		}
		return
	}

	// A late success from a call admitted before the circuit opened does
	// not close it; only the trial call can.
	if trial || cb.state == StateClosed {
		cb.failureCount = 0
		cb.state = StateClosed
	}
}

// GetState returns the current circuit breaker state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// circuitBreakerSearcher skips the service while it keeps failing.
type circuitBreakerSearcher struct {
	next    CoreSearcher
	cb      *CircuitBreaker
	metrics CircuitBreakerMetrics
}

// CircuitBreakerMiddleware creates middleware that implements the circuit breaker pattern.
// In batch mode this lets later queries fall back immediately once the
// service is known to be down.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return CircuitBreakerMiddlewareWithMetrics(maxFailures, cooldown, nil)
}

// CircuitBreakerMiddlewareWithMetrics creates circuit breaker middleware with metrics support.
func CircuitBreakerMiddlewareWithMetrics(maxFailures int, cooldown time.Duration, metrics CircuitBreakerMetrics) Middleware {
	cb := NewCircuitBreaker(maxFailures, cooldown)

	return func(next CoreSearcher) CoreSearcher {
		return &circuitBreakerSearcher{
			next:    next,
			cb:      cb,
			metrics: metrics,
		}
	}
}

// DoSearch executes the search through the circuit breaker.
func (c *circuitBreakerSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	var body []byte

	err := c.cb.Call(func() error {
		var err error
		body, err = c.next.DoSearch(ctx, req)
		return err
	})

	if c.metrics != nil {
		switch {
		case err == nil:
			c.metrics.RecordSuccess()
		case errors.Is(err, ErrCircuitOpen):
			c.metrics.RecordTrip()
		default:
			c.metrics.RecordFailure()
		}
		c.metrics.RecordState(c.cb.GetState())
	}

	return body, err
}

// Endpoint returns the endpoint of the wrapped implementation.
func (c *circuitBreakerSearcher) Endpoint() string { return c.next.Endpoint() }
