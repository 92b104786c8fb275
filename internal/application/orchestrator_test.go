package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-icdmatch/infrastructure/icdapi"
	"github.com/ahrav/go-icdmatch/infrastructure/local"
	"github.com/ahrav/go-icdmatch/infrastructure/ranking"
	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// spySource records how often it is asked and returns a fixed outcome.
type spySource struct {
	name    string
	outcome domain.Outcome
	calls   atomic.Int32
}

func (s *spySource) Name() string { return s.name }

func (s *spySource) ProvideCandidates(_ context.Context, _ domain.Query) domain.Outcome {
	s.calls.Add(1)
	out := s.outcome
	out.Candidates = domain.CloneCandidates(out.Candidates)
	return out
}

// spyRanker records the candidates it was given.
type spyRanker struct {
	mu    sync.Mutex
	calls int
	seen  []domain.Candidate
	inner ports.Ranker
}

func (r *spyRanker) Rank(ctx context.Context, query string, candidates []domain.Candidate, topK int) domain.RankedResults {
	r.mu.Lock()
	r.calls++
	r.seen = candidates
	r.mu.Unlock()
	return r.inner.Rank(ctx, query, candidates, topK)
}

// recordingObserver captures every callback in order.
type recordingObserver struct {
	mu          sync.Mutex
	started     int
	transitions []string
	fallbacks   []string
	completed   []domain.SourceKind
	lastErr     error
}

func (o *recordingObserver) OnStart(ctx context.Context, _ string) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
	return ctx
}

func (o *recordingObserver) OnTransition(_ context.Context, _ string, from, to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, from+"->"+to)
}

func (o *recordingObserver) OnFallback(_ context.Context, _ string, reason string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks = append(o.fallbacks, reason)
}

func (o *recordingObserver) OnComplete(_ context.Context, _ string, source domain.SourceKind, _ int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, source)
	o.lastErr = err
}

func newTestRanker(t *testing.T) *ranking.TFIDFRanker {
	t.Helper()
	r, err := ranking.NewTFIDFRanker(ranking.Config{})
	require.NoError(t, err)
	return r
}

func localSpy() *spySource {
	return &spySource{name: "local", outcome: domain.Succeeded(domain.SourceLocal, local.Baseline())}
}

func remoteCandidates() []domain.Candidate {
	return []domain.Candidate{
		{Code: "1D40", Title: "Dengue fever", Definition: "Viral fever transmitted by mosquitoes."},
		{Code: "MG26", Title: "Fever of other or unknown origin"},
	}
}

func TestNewOrchestrator_Validation(t *testing.T) {
	ranker := newTestRanker(t)

	_, err := NewOrchestrator(nil, ranker)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewOrchestrator(localSpy(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewOrchestrator(localSpy(), ranker, WithTopK(0))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	orch, err := NewOrchestrator(localSpy(), ranker)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, orch.topK)
	assert.False(t, orch.HasRemote())
}

func TestOrchestrator_EmptyQueryTouchesNoSource(t *testing.T) {
	remote := &spySource{name: "remote", outcome: domain.Succeeded(domain.SourceRemote, remoteCandidates())}
	localSrc := localSpy()
	ranker := &spyRanker{inner: newTestRanker(t)}
	obs := &recordingObserver{}

	orch, err := NewOrchestrator(localSrc, ranker, WithRemote(remote), WithObserver(obs))
	require.NoError(t, err)

	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := orch.Run(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	}

	assert.Zero(t, remote.calls.Load(), "remote source must not be called")
	assert.Zero(t, localSrc.calls.Load(), "local source must not be called")
	assert.Zero(t, ranker.calls)
	assert.Zero(t, obs.started)
}

func TestOrchestrator_LocalOnlyPath(t *testing.T) {
	localSrc := localSpy()
	obs := &recordingObserver{}

	orch, err := NewOrchestrator(localSrc, newTestRanker(t), WithObserver(obs))
	require.NoError(t, err)

	answer, err := orch.Run(context.Background(), "fever and headache")
	require.NoError(t, err)

	assert.Equal(t, "fever and headache", answer.Query)
	assert.Equal(t, domain.SourceLocal, answer.Source)
	assert.Empty(t, answer.FallbackReason)
	assert.Equal(t, int32(1), localSrc.calls.Load())
	assert.Equal(t, []string{
		"idle->sourcing_local",
		"sourcing_local->ranking",
		"ranking->presented",
	}, obs.transitions)

	codes := answer.Results.Codes()
	require.Contains(t, codes, "R50.9")
	require.Contains(t, codes, "A00")
	assert.Less(t, indexOf(codes, "R50.9"), indexOf(codes, "A00"), "R50.9 must rank above A00")
}

func TestOrchestrator_UsableRemoteSkipsLocal(t *testing.T) {
	remote := &spySource{name: "remote", outcome: domain.Succeeded(domain.SourceRemote, remoteCandidates())}
	localSrc := localSpy()
	ranker := &spyRanker{inner: newTestRanker(t)}
	obs := &recordingObserver{}

	orch, err := NewOrchestrator(localSrc, ranker, WithRemote(remote), WithObserver(obs))
	require.NoError(t, err)

	answer, err := orch.Run(context.Background(), "dengue fever")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceRemote, answer.Source)
	assert.Empty(t, answer.FallbackReason)
	assert.Zero(t, localSrc.calls.Load())
	assert.Equal(t, remoteCandidates(), ranker.seen)
	assert.Equal(t, "1D40", answer.Results[0].Code)
	assert.Equal(t, []string{
		"idle->sourcing_remote",
		"sourcing_remote->ranking",
		"ranking->presented",
	}, obs.transitions)
}

func TestOrchestrator_FallsBackToLocal(t *testing.T) {
	blank := []domain.Candidate{{}, {}, {Code: "X"}}

	tests := []struct {
		name       string
		outcome    domain.Outcome
		wantReason string
		wantLog    string
	}{
		{
			name:       "transport failure",
			outcome:    domain.FailedWith(domain.SourceRemote, ports.NewSourceError("icdapi", "Search", ports.ErrServiceUnavailable)),
			wantReason: FallbackError,
			wantLog:    "level=WARN msg=\"remote lookup failed, using local dataset\"",
		},
		{
			name:       "missing credential",
			outcome:    domain.FailedWith(domain.SourceRemote, icdapi.ErrMissingCredential),
			wantReason: FallbackError,
			wantLog:    "level=WARN",
		},
		{
			name:       "empty result",
			outcome:    domain.Succeeded(domain.SourceRemote, nil),
			wantReason: FallbackEmpty,
			wantLog:    "level=INFO",
		},
		{
			name:       "mostly blank records",
			outcome:    domain.Succeeded(domain.SourceRemote, blank),
			wantReason: FallbackDegenerate,
			wantLog:    "level=WARN msg=\"remote candidates are mostly blank, using local dataset\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			remote := &spySource{name: "remote", outcome: tt.outcome}
			localSrc := localSpy()
			obs := &recordingObserver{}

			orch, err := NewOrchestrator(localSrc, newTestRanker(t),
				WithRemote(remote), WithObserver(obs), WithLogger(logger))
			require.NoError(t, err)

			answer, err := orch.Run(context.Background(), "fever")
			require.NoError(t, err, "remote problems must never reach the caller")

			assert.Equal(t, domain.SourceLocal, answer.Source)
			assert.Equal(t, tt.wantReason, answer.FallbackReason)
			assert.NotEmpty(t, answer.Results)
			assert.Equal(t, int32(1), remote.calls.Load())
			assert.Equal(t, int32(1), localSrc.calls.Load())
			assert.Equal(t, []string{tt.wantReason}, obs.fallbacks)
			assert.Equal(t, []string{
				"idle->sourcing_remote",
				"sourcing_remote->sourcing_local",
				"sourcing_local->ranking",
				"ranking->presented",
			}, obs.transitions)
			assert.Contains(t, logs.String(), tt.wantLog)
		})
	}
}

// TestOrchestrator_RemoteTransportFailure drives a real client whose
// transport always fails and checks the local dataset answers instead.
func TestOrchestrator_RemoteTransportFailure(t *testing.T) {
	core := icdapi.NewMockCoreSearcher()
	core.Error = errors.New("connection refused")

	client, err := icdapi.NewClient(icdapi.ClientConfig{Token: "secret", Core: core})
	require.NoError(t, err)

	orch, err := NewOrchestrator(local.NewSource(), newTestRanker(t),
		WithRemote(icdapi.NewRemoteSource(client)),
		WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	for _, q := range []string{"fever", "cough", "pain in the abdomen"} {
		answer, err := orch.Run(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceLocal, answer.Source)
		assert.NotEmpty(t, answer.Results)
	}
	assert.Equal(t, 3, core.GetCallCount())
}

func TestOrchestrator_PanickingRemoteIsContained(t *testing.T) {
	core := icdapi.NewMockCoreSearcher()
	core.Panic = true

	client, err := icdapi.NewClient(icdapi.ClientConfig{Token: "secret", Core: core})
	require.NoError(t, err)

	orch, err := NewOrchestrator(local.NewSource(), newTestRanker(t),
		WithRemote(icdapi.NewRemoteSource(client)),
		WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	var answer Answer
	require.NotPanics(t, func() {
		answer, err = orch.Run(context.Background(), "fever")
	})
	require.NoError(t, err)
	assert.Equal(t, FallbackError, answer.FallbackReason)
}

func TestOrchestrator_NoRelevantResults(t *testing.T) {
	empty := &spySource{name: "local", outcome: domain.Succeeded(domain.SourceLocal, nil)}
	obs := &recordingObserver{}

	orch, err := NewOrchestrator(empty, newTestRanker(t), WithObserver(obs))
	require.NoError(t, err)

	answer, err := orch.Run(context.Background(), "fever")
	require.ErrorIs(t, err, domain.ErrNoRelevantResults)
	assert.Empty(t, answer.Results)
	assert.Equal(t, "fever", answer.Query)
	assert.ErrorIs(t, obs.lastErr, domain.ErrNoRelevantResults)
	assert.Equal(t, "ranking->presented", obs.transitions[len(obs.transitions)-1])
}

func TestOrchestrator_TopK(t *testing.T) {
	orch, err := NewOrchestrator(localSpy(), newTestRanker(t), WithTopK(2))
	require.NoError(t, err)

	answer, err := orch.Run(context.Background(), "unspecified pain")
	require.NoError(t, err)
	assert.Len(t, answer.Results, 2)
	assert.Equal(t, 1, answer.Results[0].Rank)
	assert.Equal(t, 2, answer.Results[1].Rank)
}

func TestOrchestrator_ObserversNotifiedInOrder(t *testing.T) {
	first, second := &recordingObserver{}, &recordingObserver{}

	orch, err := NewOrchestrator(localSpy(), newTestRanker(t),
		WithObserver(first), WithObserver(nil), WithObserver(second))
	require.NoError(t, err)
	require.Len(t, orch.observers, 2)

	_, err = orch.Run(context.Background(), "cough")
	require.NoError(t, err)

	assert.Equal(t, first.transitions, second.transitions)
	assert.Equal(t, []domain.SourceKind{domain.SourceLocal}, first.completed)
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}
