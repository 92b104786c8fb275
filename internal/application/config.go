package application

import (
	"time"

	"github.com/ahrav/go-icdmatch/infrastructure/icdapi"
)

// DefaultTokenEnv is the environment variable consulted for the ICD-API
// bearer token when the config does not name another one.
const DefaultTokenEnv = "ICD_API_TOKEN"

// LanguageEnv overrides the remote response language.
const LanguageEnv = "ICDMATCH_LANG"

// AppConfig is the complete runtime configuration of the matcher and
// serves as the primary configuration entry point for the CLI.
type AppConfig struct {
	// Remote configures the WHO ICD-API lookup.
	Remote RemoteConfig `yaml:"remote"`
	// Ranking controls how many results are shown and how tolerant the
	// ranker is of misspelled query words.
	Ranking RankingConfig `yaml:"ranking"`
	// Local points at an optional replacement for the built-in dataset.
	Local LocalConfig `yaml:"local"`
	// Batch configures the batch subcommand.
	Batch BatchConfig `yaml:"batch"`
}

// RemoteConfig describes how to reach the ICD-API search endpoint.
type RemoteConfig struct {
	// BaseURL is the API root without the /icd/entity/search suffix.
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// Language is sent as Accept-Language and selects the language-map entry
	// the normalizer prefers.
	Language string `yaml:"language" validate:"required,langtag"`
	// ReleaseID selects the linearization or dated release, e.g. "mms" or "2024-01".
	ReleaseID string `yaml:"release_id" validate:"required,releaseid"`
	// TimeoutSeconds bounds a single lookup. Values above 30 are clamped.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=1,max=30"`
	// MaxCandidates caps how many remote records are normalized.
	MaxCandidates int `yaml:"max_candidates" validate:"min=1,max=500"`
	// Token is the bearer token itself. Prefer TokenEnv.
	Token string `yaml:"token"`
	// TokenEnv names the environment variable holding the token.
	TokenEnv string `yaml:"token_env" validate:"omitempty,max=128"`
	// RateLimit throttles outgoing lookups. Zero disables it.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// CircuitBreaker stops calling a failing service for a while. Zero
	// failures disables it.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RateLimitConfig configures the token bucket in front of the remote source.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0,max=1000"`
	Burst             int     `yaml:"burst" validate:"min=0,max=1000"`
}

// CircuitBreakerConfig configures the breaker in front of the remote source.
type CircuitBreakerConfig struct {
	MaxFailures     int `yaml:"max_failures" validate:"min=0,max=100"`
	CooldownSeconds int `yaml:"cooldown_seconds" validate:"min=0,max=3600"`
}

// RankingConfig controls result presentation and typo tolerance.
// MinScore drops results scoring below it; zero keeps every result.
type RankingConfig struct {
	TopK         int     `yaml:"top_k" validate:"min=1,max=100"`
	TypoDistance int     `yaml:"typo_distance" validate:"min=0,max=3"`
	MinScore     float64 `yaml:"min_score" validate:"min=0,max=1"`
}

// LocalConfig points at an optional YAML or JSON dataset.
type LocalConfig struct {
	DatasetPath string `yaml:"dataset_path"`
}

// BatchConfig bounds parallelism in batch mode.
type BatchConfig struct {
	Parallelism int `yaml:"parallelism" validate:"min=1,max=64"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() AppConfig {
	return AppConfig{
		Remote: RemoteConfig{
			BaseURL:        icdapi.DefaultBaseURL,
			Language:       icdapi.DefaultLanguage,
			ReleaseID:      icdapi.DefaultReleaseID,
			TimeoutSeconds: int(icdapi.DefaultTimeout / time.Second),
			MaxCandidates:  icdapi.DefaultMaxCandidates,
			TokenEnv:       DefaultTokenEnv,
			RateLimit:      RateLimitConfig{Burst: 1},
			CircuitBreaker: CircuitBreakerConfig{CooldownSeconds: 30},
		},
		Ranking: RankingConfig{
			TopK: DefaultTopK,
		},
		Batch: BatchConfig{
			Parallelism: 4,
		},
	}
}

// Timeout returns the remote timeout as a duration.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Cooldown returns the circuit breaker cooldown as a duration.
func (c CircuitBreakerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// Enabled reports whether the rate limiter should be installed.
func (r RateLimitConfig) Enabled() bool { return r.RequestsPerSecond > 0 }

// Enabled reports whether the circuit breaker should be installed.
func (c CircuitBreakerConfig) Enabled() bool { return c.MaxFailures > 0 }

// UsesCustomDataset reports whether a dataset file replaces the built-in table.
func (l LocalConfig) UsesCustomDataset() bool { return l.DatasetPath != "" }
