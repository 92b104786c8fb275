package icdapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedSearcher wraps each search in an OpenTelemetry span.
type tracedSearcher struct {
	next        CoreSearcher
	serviceName string
	tracer      trace.Tracer
}

// TracingMiddleware creates middleware that adds distributed tracing to searches.
func TracingMiddleware(serviceName string) Middleware {
	return TracingMiddlewareWithTracer(serviceName, otel.Tracer("icdapi"))
}

// TracingMiddlewareWithTracer is TracingMiddleware with an explicit tracer.
func TracingMiddlewareWithTracer(serviceName string, tracer trace.Tracer) Middleware {
	return func(next CoreSearcher) CoreSearcher {
		return &tracedSearcher{
			next:        next,
			serviceName: serviceName,
			tracer:      tracer,
		}
	}
}

// DoSearch executes the search within a span. The token is never recorded.
func (t *tracedSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "icdapi.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("service.name", t.serviceName),
			attribute.String("icd.endpoint", t.next.Endpoint()),
			attribute.String("icd.release_id", req.ReleaseID),
			attribute.String("icd.language", req.Language),
			attribute.Int("icd.query.length", len(req.Query)),
		),
	)
	defer span.End()

	body, err := t.next.DoSearch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("icd.response.bytes", len(body)))
	return body, nil
}

// Endpoint returns the endpoint of the wrapped implementation.
func (t *tracedSearcher) Endpoint() string { return t.next.Endpoint() }
