package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

var _ ports.QueryObserver = (*OTelQueryObserver)(nil)

type stageClockKey struct{}

// stageClock remembers when the current stage began. It belongs to a
// single query and is only touched by the goroutine running that query.
type stageClock struct {
	stage string
	start time.Time
}

// OTelQueryObserver traces each query as one span, records state
// transitions and fallbacks as span events and feeds the metrics collector.
// Per-query state travels in the context, so one observer serves
// concurrent queries.
type OTelQueryObserver struct {
	metrics ports.MetricsCollector
	tracer  trace.Tracer
	now     func() time.Time
}

// NewOTelQueryObserver creates a new OpenTelemetry query observer. metrics
// may be nil.
func NewOTelQueryObserver(metrics ports.MetricsCollector) *OTelQueryObserver {
	return &OTelQueryObserver{
		metrics: metrics,
		tracer:  otel.Tracer("query-orchestrator"),
		now:     time.Now,
	}
}

// WithTracer returns the observer using tracer instead of the global one.
func (o *OTelQueryObserver) WithTracer(tracer trace.Tracer) *OTelQueryObserver {
	o.tracer = tracer
	return o
}

// OnStart starts the query span.
func (o *OTelQueryObserver) OnStart(ctx context.Context, query string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "Orchestrator.Run",
		trace.WithAttributes(attribute.Int("query.length", len(query))),
	)
	return context.WithValue(ctx, stageClockKey{}, &stageClock{stage: "idle", start: o.now()})
}

// OnTransition adds a span event and records how long the previous stage took.
func (o *OTelQueryObserver) OnTransition(ctx context.Context, _ string, from, to string) {
	trace.SpanFromContext(ctx).AddEvent("state.transition", trace.WithAttributes(
		attribute.String("state.from", from),
		attribute.String("state.to", to),
	))

	if clock, ok := ctx.Value(stageClockKey{}).(*stageClock); ok {
		now := o.now()
		if o.metrics != nil {
			o.metrics.RecordLatency(clock.stage, now.Sub(clock.start), map[string]string{"stage": clock.stage})
		}
		clock.stage, clock.start = to, now
	}
}

// OnFallback records why the remote outcome was rejected.
func (o *OTelQueryObserver) OnFallback(ctx context.Context, _ string, reason string, err error) {
	attrs := []attribute.KeyValue{attribute.String("fallback.reason", reason)}
	if err != nil {
		attrs = append(attrs, attribute.String("fallback.error", err.Error()))
	}
	trace.SpanFromContext(ctx).AddEvent("fallback", trace.WithAttributes(attrs...))

	if o.metrics != nil {
		o.metrics.RecordCounter(MetricFallbacks, 1, map[string]string{"reason": reason})
	}
}

// OnComplete finalizes the span and records the query outcome.
func (o *OTelQueryObserver) OnComplete(
	ctx context.Context,
	_ string,
	source domain.SourceKind,
	results int,
	err error,
) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.String("query.source", string(source)),
		attribute.Int("query.results", results),
	)

	status := "success"
	switch {
	case errors.Is(err, domain.ErrNoRelevantResults):
		status = "no_results"
		span.SetStatus(codes.Ok, "no relevant results")
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.SetStatus(codes.Ok, "query answered")
	}

	if o.metrics != nil {
		labels := map[string]string{"source": string(source), "status": status}
		o.metrics.RecordCounter(MetricQueries, 1, labels)
		o.metrics.RecordHistogram(MetricResults, float64(results), labels)
	}
}
