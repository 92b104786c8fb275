package application

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchParallelism bounds concurrent queries when none is configured.
const DefaultBatchParallelism = 4

// BatchItem is the result of one query in a batch.
type BatchItem struct {
	// Index is the position of the query in the input.
	Index int
	// Answer holds whatever the query produced, possibly partial.
	Answer Answer
	// Err is the query's own error. It never affects other items.
	Err error
}

// RunBatch answers every query with orch, running at most parallelism of
// them at once. Items come back in input order. A failing query records
// its error on its item and the rest of the batch carries on.
// Cancelling ctx makes the remaining queries fail with the context error.
func RunBatch(ctx context.Context, orch *Orchestrator, queries []string, parallelism int) []BatchItem {
	items := make([]BatchItem, len(queries))
	if len(queries) == 0 {
		return items
	}

	if parallelism <= 0 {
		parallelism = DefaultBatchParallelism
	}

	// Per-item errors are kept on the items, so the group itself never fails
	// and never cancels siblings.
	var g errgroup.Group
	g.SetLimit(parallelism)

	for i, raw := range queries {
		g.Go(func() error {
			item := BatchItem{Index: i}
			if err := ctx.Err(); err != nil {
				item.Err = err
			} else {
				item.Answer, item.Err = orch.Run(ctx, raw)
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return items
}
