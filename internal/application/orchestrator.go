// Package application coordinates candidate sourcing, ranking and
// presentation for a single query or a batch of queries. It owns the
// configuration model and wires infrastructure adapters together.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// DefaultTopK is how many ranked results a query returns by default.
const DefaultTopK = 8

// State is a step in the life of a query.
type State string

// Query states in the order a query may pass through them.
const (
	StateIdle           State = "idle"
	StateSourcingRemote State = "sourcing_remote"
	StateSourcingLocal  State = "sourcing_local"
	StateRanking        State = "ranking"
	StatePresented      State = "presented"
)

// Fallback reasons reported to observers and stored on Answer.
const (
	FallbackError      = "error"
	FallbackEmpty      = "empty"
	FallbackDegenerate = "degenerate"
)

// Answer is what a query produces once it reaches the presented state.
type Answer struct {
	// Query is the trimmed query text.
	Query string
	// Source tells where the ranked candidates came from.
	Source domain.SourceKind
	// Results holds at most top-k ranked results.
	Results domain.RankedResults
	// FallbackReason is set when a remote source was configured but its
	// outcome was rejected. Empty otherwise.
	FallbackReason string
}

// Orchestrator drives a query from raw text to ranked results. The remote
// source is optional; the local source is always consulted when the remote
// one is absent or its outcome is unusable.
// Orchestrator is safe for concurrent use when its sources, ranker and
// observers are.
type Orchestrator struct {
	remote    ports.CandidateSource
	local     ports.CandidateSource
	ranker    ports.Ranker
	topK      int
	logger    *slog.Logger
	observers []ports.QueryObserver
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRemote configures the remote candidate source. Callers should only
// pass a source when a credential is available.
func WithRemote(src ports.CandidateSource) OrchestratorOption {
	return func(o *Orchestrator) { o.remote = src }
}

// WithTopK sets how many results a query returns.
func WithTopK(k int) OrchestratorOption {
	return func(o *Orchestrator) { o.topK = k }
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver adds an observer. Observers are notified in the order added.
func WithObserver(obs ports.QueryObserver) OrchestratorOption {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// NewOrchestrator creates an orchestrator over a local source and a ranker.
// NewOrchestrator returns an error if either is missing or top-k is not positive.
func NewOrchestrator(
	local ports.CandidateSource,
	ranker ports.Ranker,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if local == nil {
		return nil, fmt.Errorf("local source is required: %w", domain.ErrInvalidConfiguration)
	}
	if ranker == nil {
		return nil, fmt.Errorf("ranker is required: %w", domain.ErrInvalidConfiguration)
	}

	o := &Orchestrator{
		local:  local,
		ranker: ranker,
		topK:   DefaultTopK,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.topK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d: %w", o.topK, domain.ErrInvalidConfiguration)
	}
	return o, nil
}

// HasRemote reports whether a remote source is configured.
func (o *Orchestrator) HasRemote() bool { return o.remote != nil }

// Run answers one query. An empty query fails with domain.ErrEmptyQuery
// before any source is consulted. Remote failures never surface; they only
// cause the local source to be used. When ranking yields nothing, Run
// returns the Answer together with domain.ErrNoRelevantResults.
func (o *Orchestrator) Run(ctx context.Context, raw string) (Answer, error) {
	query, err := domain.NewQuery(raw)
	if err != nil {
		return Answer{}, err
	}
	text := query.Text()

	for _, obs := range o.observers {
		ctx = obs.OnStart(ctx, text)
	}

	answer := Answer{Query: text}
	state := StateIdle

	var outcome domain.Outcome
	if o.remote != nil {
		state = o.transition(ctx, text, state, StateSourcingRemote)
		outcome = o.remote.ProvideCandidates(ctx, query)
		if reason := fallbackReason(outcome); reason != "" {
			o.fallback(ctx, text, reason, outcome)
			answer.FallbackReason = reason
		}
	}

	if !outcome.Usable() {
		state = o.transition(ctx, text, state, StateSourcingLocal)
		outcome = o.local.ProvideCandidates(ctx, query)
		if outcome.Failed() {
			o.logger.ErrorContext(ctx, "local source failed", "query", text, "err", outcome.Err)
		}
	}
	answer.Source = outcome.Source

	state = o.transition(ctx, text, state, StateRanking)
	answer.Results = o.ranker.Rank(ctx, text, outcome.Candidates, o.topK)

	o.transition(ctx, text, state, StatePresented)

	if len(answer.Results) == 0 {
		err = domain.ErrNoRelevantResults
	}
	o.complete(ctx, text, answer, err)

	return answer, err
}

// fallbackReason classifies an unusable remote outcome. It returns an empty
// string when the outcome can be ranked.
func fallbackReason(outcome domain.Outcome) string {
	switch {
	case outcome.Failed():
		return FallbackError
	case outcome.Empty():
		return FallbackEmpty
	case outcome.Degenerate():
		return FallbackDegenerate
	default:
		return ""
	}
}

func (o *Orchestrator) fallback(ctx context.Context, query, reason string, outcome domain.Outcome) {
	switch reason {
	case FallbackError:
		level := slog.LevelWarn
		if errors.Is(outcome.Err, context.Canceled) {
			level = slog.LevelInfo
		}
		o.logger.Log(ctx, level, "remote lookup failed, using local dataset",
			"query", query, "err", outcome.Err)
	case FallbackEmpty:
		o.logger.InfoContext(ctx, "remote lookup returned no candidates, using local dataset",
			"query", query)
	case FallbackDegenerate:
		o.logger.WarnContext(ctx, "remote candidates are mostly blank, using local dataset",
			"query", query, "candidates", len(outcome.Candidates))
	}

	for _, obs := range o.observers {
		obs.OnFallback(ctx, query, reason, outcome.Err)
	}
}

func (o *Orchestrator) transition(ctx context.Context, query string, from, to State) State {
	for _, obs := range o.observers {
		obs.OnTransition(ctx, query, string(from), string(to))
	}
	return to
}

func (o *Orchestrator) complete(ctx context.Context, query string, answer Answer, err error) {
	for _, obs := range o.observers {
		obs.OnComplete(ctx, query, answer.Source, len(answer.Results), err)
	}
}
