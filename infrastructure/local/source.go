package local

import (
	"context"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// Compile-time check that Source implements ports.CandidateSource.
var _ ports.CandidateSource = (*Source)(nil)

// Source serves candidates from an in-memory table. It never fails and
// hands out a fresh copy on every call, so it is safe for concurrent use.
type Source struct {
	table []domain.Candidate
}

// Option configures a Source.
type Option func(*Source)

// WithDataset replaces the built-in table. An empty dataset is ignored so
// the source can never come up empty.
func WithDataset(candidates []domain.Candidate) Option {
	return func(s *Source) {
		if len(candidates) > 0 {
			s.table = domain.CloneCandidates(candidates)
		}
	}
}

// NewSource creates a Source over the built-in table unless an option
// supplies another one.
func NewSource(opts ...Option) *Source {
	s := &Source{table: baseline}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source identifier.
func (s *Source) Name() string { return "local" }

// Len returns the number of entries in the table.
func (s *Source) Len() int { return len(s.table) }

// ProvideCandidates returns a copy of the table. The query is not used to
// filter; relevance is left to the ranker.
func (s *Source) ProvideCandidates(_ context.Context, _ domain.Query) domain.Outcome {
	return domain.Succeeded(domain.SourceLocal, domain.CloneCandidates(s.table))
}
