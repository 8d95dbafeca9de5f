// Package storage persists per-task audit reports. Two backends are
// provided: flat JSON files for the canonical on-disk layout, and DuckDB for
// queryable aggregation. A composite store fans writes out to both.
package storage

import (
	"context"
	"errors"

	"ytaudit/internal/spec"
)

// ErrNotFound reports that no result is stored under the requested task id.
var ErrNotFound = errors.New("storage: result not found")

// Metadata describes the batch context a result was produced in.
type Metadata struct {
	ExperimentID string    `json:"experiment_id"`
	TaskIndex    int       `json:"task_index"`
	Mode         spec.Mode `json:"mode"`
	SeedIDs      []string  `json:"seed_ids"`
}

// Record is the persisted per-task envelope: the report itself plus the
// metadata identifying where in the batch it came from.
type Record struct {
	TaskID   string      `json:"task_id"`
	Result   spec.Report `json:"result"`
	Metadata Metadata    `json:"metadata"`
}

// Store persists one record per task id. Saving an existing id overwrites.
type Store interface {
	SaveResult(ctx context.Context, taskID string, report spec.Report, meta Metadata) error
	LoadResult(ctx context.Context, taskID string) (Record, error)
	// ListResults returns stored task ids in lexical order.
	ListResults(ctx context.Context) ([]string, error)
	Close() error
}
