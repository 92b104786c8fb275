package middleware

import (
	"github.com/ahrav/go-icdmatch/infrastructure/icdapi"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// Circuit breaker metric names.
const (
	MetricBreakerState = "icd_circuit_breaker_state"
	MetricBreakerCalls = "icd_circuit_breaker_calls_total"
)

var _ icdapi.CircuitBreakerMetrics = (*BreakerMetrics)(nil)

// BreakerMetrics forwards circuit breaker events to a MetricsCollector.
type BreakerMetrics struct {
	collector ports.MetricsCollector
	service   string
}

// NewBreakerMetrics creates a BreakerMetrics for the named service.
func NewBreakerMetrics(collector ports.MetricsCollector, service string) *BreakerMetrics {
	return &BreakerMetrics{
		collector: collector,
		service:   service,
	}
}

// RecordState publishes the state as a gauge (0 closed, 1 open, 2 half open).
func (b *BreakerMetrics) RecordState(state icdapi.CircuitBreakerState) {
	b.collector.RecordGauge(MetricBreakerState, float64(state), map[string]string{"service": b.service})
}

// RecordTrip counts a request rejected by the open breaker.
func (b *BreakerMetrics) RecordTrip() {
	b.call("rejected")
}

// RecordSuccess counts a call that went through and succeeded.
func (b *BreakerMetrics) RecordSuccess() {
	b.call("success")
}

// RecordFailure counts a call that went through and failed.
func (b *BreakerMetrics) RecordFailure() {
	b.call("failure")
}

func (b *BreakerMetrics) call(result string) {
	b.collector.RecordCounter(MetricBreakerCalls, 1, map[string]string{"service": b.service, "result": result})
}
