package icdapi

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-icdmatch/internal/ports"
)

// Metric names recorded by MetricsMiddleware.
const (
	MetricLookupRequests = "icd_lookup_requests_total"
	MetricLookupLatency  = "icd_lookup_latency_seconds"
)

// metricsSearcher records request counts and latency per outcome.
type metricsSearcher struct {
	next      CoreSearcher
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects request metrics.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreSearcher) CoreSearcher {
		return &metricsSearcher{
			next:      next,
			collector: collector,
		}
	}
}

// DoSearch executes the search while recording latency and status.
func (m *metricsSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	start := time.Now()
	body, err := m.next.DoSearch(ctx, req)

	if m.collector != nil {
		labels := map[string]string{
			"service": DefaultServiceName,
			"status":  lookupStatus(err),
		}
		m.collector.RecordHistogram(MetricLookupLatency, time.Since(start).Seconds(), labels)
		m.collector.RecordCounter(MetricLookupRequests, 1, labels)
	}

	return body, err
}

// lookupStatus maps an error onto a low-cardinality status label.
func lookupStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ports.ErrAuthenticationFailed):
		return "auth_error"
	case errors.Is(err, ports.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}

// Endpoint returns the endpoint of the wrapped implementation.
func (m *metricsSearcher) Endpoint() string { return m.next.Endpoint() }
