package icdapi

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedSearcher paces outgoing searches with a token bucket so batch
// runs stay under the service's published limits.
type rateLimitedSearcher struct {
	next    CoreSearcher
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces rate limiting using a token bucket algorithm.
// The limit parameter sets requests per second, while burst allows
// temporary spikes above the sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreSearcher) CoreSearcher {
		return &rateLimitedSearcher{
			next:    next,
			limiter: limiter,
		}
	}
}

// DoSearch waits for rate limit permission before forwarding the search.
func (r *rateLimitedSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoSearch(ctx, req)
}

// Endpoint returns the endpoint of the wrapped implementation.
func (r *rateLimitedSearcher) Endpoint() string { return r.next.Endpoint() }
