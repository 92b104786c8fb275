package middleware

import (
	"context"
	"log/slog"

	"github.com/ahrav/go-icdmatch/internal/domain"
	"github.com/ahrav/go-icdmatch/internal/ports"
)

var _ ports.QueryObserver = (*LoggingObserver)(nil)

// LoggingObserver writes orchestrator state transitions to a slog logger at
// debug level. Fallback warnings are logged by the orchestrator itself.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a LoggingObserver. A nil logger means slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnStart logs the start of a query.
func (l *LoggingObserver) OnStart(ctx context.Context, query string) context.Context {
	l.logger.DebugContext(ctx, "query started", "query", query)
	return ctx
}

// OnTransition logs a state change.
func (l *LoggingObserver) OnTransition(ctx context.Context, query string, from, to string) {
	l.logger.DebugContext(ctx, "state transition", "query", query, "from", from, "to", to)
}

// OnFallback logs the fallback reason.
func (l *LoggingObserver) OnFallback(ctx context.Context, query string, reason string, err error) {
	l.logger.DebugContext(ctx, "fallback to local dataset", "query", query, "reason", reason, "err", err)
}

// OnComplete logs the final outcome.
func (l *LoggingObserver) OnComplete(
	ctx context.Context,
	query string,
	source domain.SourceKind,
	results int,
	err error,
) {
	l.logger.DebugContext(ctx, "query complete",
		"query", query, "source", source, "results", results, "err", err)
}
