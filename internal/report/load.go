// Package report aggregates persisted task results into experiment-level
// summaries and renders them as text or HTML.
package report

import (
	"context"
	"fmt"

	"ytaudit/internal/spec"
	"ytaudit/internal/storage"
)

// TaskResult pairs a stored report with its task id and batch metadata.
type TaskResult struct {
	TaskID string
	Meta   storage.Metadata
	Report spec.Report
}

// Load reads every stored result in lexical task order.
func Load(ctx context.Context, store storage.Store) ([]TaskResult, error) {
	ids, err := store.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: list results: %w", err)
	}
	results := make([]TaskResult, 0, len(ids))
	for _, id := range ids {
		rec, err := store.LoadResult(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("report: load %s: %w", id, err)
		}
		results = append(results, TaskResult{TaskID: id, Meta: rec.Metadata, Report: rec.Result})
	}
	return results, nil
}
