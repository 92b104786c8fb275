// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-icdmatch/internal/domain"
)

// CandidateSource supplies candidate records for a query.
// Implementations report every failure through the returned Outcome rather
// than as an error, so the orchestrator only has to check Outcome.Usable.
// Implementations must be safe for concurrent use.
type CandidateSource interface {
	// Name returns a short identifier used in logs and metrics.
	Name() string

	// ProvideCandidates returns freshly constructed candidates for the query.
	// The returned slice must not alias any state the source keeps.
	ProvideCandidates(ctx context.Context, query domain.Query) domain.Outcome
}

// Ranker orders candidates by their textual relevance to a query.
type Ranker interface {
	// Rank scores every candidate against the query and returns at most
	// topK results sorted by score, highest first. Ties keep the input
	// order. An empty candidate list yields an empty result.
	Rank(ctx context.Context, query string, candidates []domain.Candidate, topK int) domain.RankedResults
}

// QueryObserver receives notifications as the orchestrator moves a query
// through its states. Implementations must not block.
type QueryObserver interface {
	// OnStart is called before any work on a query. The returned context is
	// passed to every later callback for the same query, so observers can
	// carry per-query state such as a span.
	OnStart(ctx context.Context, query string) context.Context

	// OnTransition is called each time the query enters a new state.
	OnTransition(ctx context.Context, query string, from, to string)

	// OnFallback is called when the remote outcome is rejected.
	// The reason is one of "error", "empty" or "degenerate".
	OnFallback(ctx context.Context, query string, reason string, err error)

	// OnComplete is called once with the final result count and error.
	OnComplete(ctx context.Context, query string, source domain.SourceKind, results int, err error)
}
