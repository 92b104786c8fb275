package application

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-icdmatch/infrastructure/icdapi"
	"github.com/ahrav/go-icdmatch/infrastructure/local"
	"github.com/ahrav/go-icdmatch/infrastructure/middleware"
	"github.com/ahrav/go-icdmatch/infrastructure/ranking"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

// Dependencies carries the shared collaborators handed to Assemble.
// Every field is optional.
type Dependencies struct {
	// Logger receives structured logs. Nil means slog.Default().
	Logger *slog.Logger
	// Metrics collects lookup, breaker and query metrics when set.
	Metrics ports.MetricsCollector
	// HTTPClient overrides the transport used for remote lookups.
	HTTPClient *http.Client
	// Core replaces the remote HTTP transport entirely.
	Core icdapi.CoreSearcher
}

// Assemble builds an Orchestrator from cfg. The remote source is only
// created when cfg carries a token, so a missing credential yields the
// local-only path. A configured dataset file replaces the built-in table.
func Assemble(cfg AppConfig, deps Dependencies) (*Orchestrator, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	localSource, err := buildLocalSource(cfg.Local)
	if err != nil {
		return nil, err
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordGauge("local_dataset_size", float64(localSource.Len()), nil)
	}

	ranker, err := ranking.NewTFIDFRanker(ranking.Config{
		TypoDistance: cfg.Ranking.TypoDistance,
		MinScore:     cfg.Ranking.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ranker: %w", err)
	}

	opts := []OrchestratorOption{
		WithTopK(cfg.Ranking.TopK),
		WithLogger(logger),
		WithObserver(middleware.NewLoggingObserver(logger)),
		WithObserver(middleware.NewOTelQueryObserver(deps.Metrics)),
	}

	if cfg.Remote.Token != "" {
		remote, err := buildRemoteSource(cfg.Remote, deps)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRemote(remote))
	} else {
		logger.Info("no ICD-API token configured, remote lookup disabled", "token_env", cfg.Remote.TokenEnv)
	}

	return NewOrchestrator(localSource, ranker, opts...)
}

func buildLocalSource(cfg LocalConfig) (*local.Source, error) {
	if !cfg.UsesCustomDataset() {
		return local.NewSource(), nil
	}

	dataset, err := local.LoadDataset(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local dataset: %w", err)
	}
	return local.NewSource(local.WithDataset(dataset)), nil
}

// buildRemoteSource assembles the client middleware chain. Tracing is the
// outermost layer so its span covers rate limiting and breaker rejections.
func buildRemoteSource(cfg RemoteConfig, deps Dependencies) (*icdapi.RemoteSource, error) {
	chain := []icdapi.Middleware{icdapi.TracingMiddleware(icdapi.DefaultServiceName)}

	if deps.Metrics != nil {
		chain = append(chain, icdapi.MetricsMiddleware(deps.Metrics))
	}
	if cfg.RateLimit.Enabled() {
		burst := max(cfg.RateLimit.Burst, 1)
		chain = append(chain, icdapi.RateLimitMiddleware(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst))
	}
	if cfg.CircuitBreaker.Enabled() {
		if deps.Metrics != nil {
			chain = append(chain, icdapi.CircuitBreakerMiddlewareWithMetrics(
				cfg.CircuitBreaker.MaxFailures,
				cfg.CircuitBreaker.Cooldown(),
				middleware.NewBreakerMetrics(deps.Metrics, icdapi.DefaultServiceName),
			))
		} else {
			chain = append(chain, icdapi.CircuitBreakerMiddleware(
				cfg.CircuitBreaker.MaxFailures,
				cfg.CircuitBreaker.Cooldown(),
			))
		}
	}

	client, err := icdapi.NewClient(icdapi.ClientConfig{
		BaseURL:    cfg.BaseURL,
		Token:      cfg.Token,
		Language:   cfg.Language,
		ReleaseID:  cfg.ReleaseID,
		Timeout:    cfg.Timeout(),
		HTTPClient: deps.HTTPClient,
		Core:       deps.Core,
		Middleware: chain,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ICD-API client: %w", err)
	}

	return icdapi.NewRemoteSource(client, icdapi.WithMaxCandidates(cfg.MaxCandidates)), nil
}
