package ranking

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

var (
	_ ports.Ranker = (*TFIDFRanker)(nil)

	validate = validator.New()
)

// minTypoRunes is the shortest query token eligible for typo correction.
const minTypoRunes = 5

// Config defines the tunable parameters of TFIDFRanker.
type Config struct {
	// MinScore drops results scoring below it. Zero keeps everything.
	MinScore float64 `yaml:"min_score" json:"min_score" validate:"min=0,max=1"`

	// TypoDistance is the largest edit distance at which an unknown query
	// token is replaced by a document term. Zero disables correction.
	TypoDistance int `yaml:"typo_distance" json:"typo_distance" validate:"min=0,max=3"`
}

// Option configures a TFIDFRanker.
type Option func(*TFIDFRanker)

// WithTypoTolerance enables typo correction up to maxDistance edits.
func WithTypoTolerance(maxDistance int) Option {
	return func(r *TFIDFRanker) { r.config.TypoDistance = maxDistance }
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *TFIDFRanker) { r.tracer = tracer }
}

// TFIDFRanker scores candidates by the cosine similarity between the TF-IDF
// vectors of the query and each candidate's title and definition. IDF is
// fitted per call over the query plus the candidates, so no state is shared
// between calls and the ranker is safe for concurrent use.
type TFIDFRanker struct {
	config Config
	tracer trace.Tracer
}

// NewTFIDFRanker creates a ranker. Returns an error if the configuration is invalid.
func NewTFIDFRanker(config Config, opts ...Option) (*TFIDFRanker, error) {
	r := &TFIDFRanker{
		config: config,
		tracer: otel.Tracer("tfidf-ranker"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := validate.Struct(r.config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return r, nil
}

// Rank returns at most topK candidates ordered by descending score. Equal
// scores keep their input order. Empty input or a non-positive topK yields
// an empty, non-nil result.
func (r *TFIDFRanker) Rank(ctx context.Context, query string, candidates []domain.Candidate, topK int) domain.RankedResults {
	_, span := r.tracer.Start(ctx, "TFIDFRanker.Rank",
		trace.WithAttributes(
			attribute.Int("rank.candidates", len(candidates)),
			attribute.Int("rank.top_k", topK),
			attribute.Int("config.typo_distance", r.config.TypoDistance),
		),
	)
	defer span.End()

	if len(candidates) == 0 || topK <= 0 {
		return domain.RankedResults{}
	}

	docs := make([][]string, len(candidates)+1)
	for i, c := range candidates {
		docs[i+1] = Tokenize(c.Document())
	}
	docs[0] = Tokenize(query)
	if r.config.TypoDistance > 0 {
		docs[0] = correctTypos(docs[0], docs[1:], r.config.TypoDistance)
	}

	space := vectorize(docs)
	queryVec := space.vectors[0]

	results := make(domain.RankedResults, len(candidates))
	for i, c := range candidates {
		results[i] = domain.RankedResult{
			Candidate: c,
			Score:     cosine(queryVec, space.vectors[i+1]),
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if r.config.MinScore > 0 {
		results = results.FilterByMinScore(r.config.MinScore)
		if results == nil {
			results = domain.RankedResults{}
		}
	}
	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	best := 0.0
	if top, ok := results.Top(); ok {
		best = top.Score
	}
	span.SetAttributes(
		attribute.Int("rank.vocabulary_size", len(space.vocab)),
		attribute.Int("rank.results", len(results)),
		attribute.Float64("rank.best_score", best),
	)
	return results
}

// correctTypos replaces query tokens that occur in no document with the
// closest document term within maxDistance edits. Ties go to the
// lexicographically smallest term.
func correctTypos(query []string, docs [][]string, maxDistance int) []string {
	known := make(map[string]struct{})
	for _, tokens := range docs {
		for _, t := range tokens {
			known[t] = struct{}{}
		}
	}
	terms := make([]string, 0, len(known))
	for t := range known {
		terms = append(terms, t)
	}
	slices.Sort(terms)

	out := make([]string, len(query))
	for i, tok := range query {
		out[i] = tok
		if _, ok := known[tok]; ok || utf8.RuneCountInString(tok) < minTypoRunes {
			continue
		}

		bestDist := maxDistance + 1
		tokLen := utf8.RuneCountInString(tok)
		for _, term := range terms {
			diff := utf8.RuneCountInString(term) - tokLen
			if diff < 0 {
				diff = -diff
			}
			if diff > maxDistance {
				continue
			}
			if d := levenshtein.ComputeDistance(tok, term); d < bestDist {
				bestDist = d
				out[i] = term
			}
		}
	}
	return out
}
