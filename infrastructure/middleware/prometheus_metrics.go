// Package middleware provides cross-cutting concerns for the lookup pipeline:
// metrics collection, tracing and logging of query state transitions.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-icdmatch/infrastructure/icdapi"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// Metric names understood by PrometheusMetrics. Anything else lands in the
// generic operation metrics.
const (
	MetricLookupRequests = icdapi.MetricLookupRequests
	MetricLookupLatency  = icdapi.MetricLookupLatency
	MetricQueries        = "icdmatch_queries_total"
	MetricFallbacks      = "icdmatch_fallbacks_total"
	MetricResults        = "icdmatch_results"
	MetricStageLatency   = "icdmatch_stage_duration_seconds"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// Metrics live on a private registry so several instances can coexist and
// a CLI run can dump them with WriteTextfile.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	lookupRequests   *prometheus.CounterVec
	lookupLatency    *prometheus.HistogramVec
	queries          *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	results          *prometheus.HistogramVec
	stageLatency     *prometheus.HistogramVec
	breakerCalls     *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
	operationValues  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance with all
// metrics registered on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,

		// Remote lookup metrics.
		lookupRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricLookupRequests,
				Help: "Total number of remote ICD lookups by outcome status.",
			},
			[]string{"service", "status"},
		),
		lookupLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricLookupLatency,
				Help:    "Latency of remote ICD lookups.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "status"},
		),

		// Query pipeline metrics.
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricQueries,
				Help: "Total number of queries answered, by candidate source and status.",
			},
			[]string{"source", "status"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFallbacks,
				Help: "Total number of fallbacks to the local dataset, by reason.",
			},
			[]string{"reason"},
		),
		results: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricResults,
				Help:    "Number of ranked results returned per query.",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
			[]string{"source"},
		),
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricStageLatency,
				Help:    "Time spent in each orchestrator stage.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		breakerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBreakerCalls,
				Help: "Calls seen by the remote circuit breaker, by result.",
			},
			[]string{"service", "result"},
		),

		// Generic fallbacks for metrics without a dedicated vector.
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icdmatch_operations_total",
				Help: "Total number of miscellaneous operations.",
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "icdmatch_system_state",
				Help: "Current system state values.",
			},
			[]string{"metric"},
		),
		operationValues: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "icdmatch_operation_values",
				Help:    "Distribution of miscellaneous operation values.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Gatherer exposes the private registry.
func (pm *PrometheusMetrics) Gatherer() prometheus.Gatherer { return pm.registry }

// WriteTextfile writes every metric in the text exposition format to path,
// in the style of the node exporter textfile collector.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return ports.NewMetricsError("*", "WriteTextfile", err)
	}
	return nil
}

// RecordLatency implements the MetricsCollector interface by recording
// stage latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	if operation == MetricLookupLatency {
		pm.RecordHistogram(operation, duration.Seconds(), labels)
		return
	}
	pm.stageLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricLookupRequests:
		pm.lookupRequests.WithLabelValues(
			labelOr(labels, "service", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Add(value)
	case MetricQueries:
		pm.queries.WithLabelValues(
			labelOr(labels, "source", "none"),
			labelOr(labels, "status", "unknown"),
		).Add(value)
	case MetricFallbacks:
		pm.fallbacks.WithLabelValues(labelOr(labels, "reason", "unknown")).Add(value)
	case MetricBreakerCalls:
		pm.breakerCalls.WithLabelValues(
			labelOr(labels, "service", "unknown"),
			labelOr(labels, "result", "unknown"),
		).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricLookupLatency:
		pm.lookupLatency.WithLabelValues(
			labelOr(labels, "service", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Observe(value)
	case MetricResults:
		pm.results.WithLabelValues(labelOr(labels, "source", "none")).Observe(value)
	default:
		pm.operationValues.WithLabelValues(metric).Observe(value)
	}
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
