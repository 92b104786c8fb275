package icdapi

import (
	"context"
	"fmt"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// DefaultMaxCandidates is how many records a remote lookup keeps.
const DefaultMaxCandidates = 50

// Compile-time check that RemoteSource implements ports.CandidateSource.
var _ ports.CandidateSource = (*RemoteSource)(nil)

// RemoteSource adapts a Client to ports.CandidateSource. It never returns
// an error: every failure, including a panic below it, becomes a failed
// Outcome wrapped in a *ports.SourceError.
type RemoteSource struct {
	client        *Client
	maxCandidates int
}

// RemoteSourceOption configures a RemoteSource.
type RemoteSourceOption func(*RemoteSource)

// WithMaxCandidates caps the number of records kept per lookup.
func WithMaxCandidates(n int) RemoteSourceOption {
	return func(s *RemoteSource) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// NewRemoteSource wraps client as a candidate source.
func NewRemoteSource(client *Client, opts ...RemoteSourceOption) *RemoteSource {
	s := &RemoteSource{client: client, maxCandidates: DefaultMaxCandidates}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source identifier.
func (s *RemoteSource) Name() string { return DefaultServiceName }

// ProvideCandidates searches the service for query.
func (s *RemoteSource) ProvideCandidates(ctx context.Context, query domain.Query) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.FailedWith(domain.SourceRemote,
				ports.NewSourceError(s.Name(), "Search", fmt.Errorf("panic: %v", r)))
		}
	}()

	candidates, err := s.client.Search(ctx, query.Text(), s.maxCandidates)
	if err != nil {
		return domain.FailedWith(domain.SourceRemote, ports.NewSourceError(s.Name(), "Search", err))
	}
	return domain.Succeeded(domain.SourceRemote, candidates)
}
