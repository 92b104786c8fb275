package icdapi

import (
	"context"
	"time"
)

// timeoutSearcher bounds every search with a deadline so a slow service
// cannot stall a query.
type timeoutSearcher struct {
	next       CoreSearcher
	timeout    time.Duration
	classifier *ErrorClassifier
}

// TimeoutMiddleware creates middleware that enforces request timeouts.
// NewClient always installs it innermost with the configured timeout.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreSearcher) CoreSearcher {
		return &timeoutSearcher{
			next:       next,
			timeout:    timeout,
			classifier: &ErrorClassifier{Service: DefaultServiceName},
		}
	}
}

// DoSearch executes the search with a timeout context. A deadline hit is
// reported as a LookupError of type ErrorTypeTimeout.
func (t *timeoutSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body, err := t.next.DoSearch(ctx, req)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, t.classifier.ClassifyTransportError(err)
	}
	return body, err
}

// Endpoint returns the endpoint of the wrapped implementation.
func (t *timeoutSearcher) Endpoint() string { return t.next.Endpoint() }
