package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ytaudit/internal/spec"

	_ "github.com/duckdb/duckdb-go/v2"
)

// schemaDDL holds the DuckDB schema definition.
//
//go:embed schema.sql
var schemaDDL string

// SchemaDDL returns the schema DDL used for initializing result databases.
func SchemaDDL() string {
	return schemaDDL
}

// EnsureSchema applies the schema DDL to the provided database connection.
func EnsureSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("storage: db is nil")
	}
	_, err := db.Exec(schemaDDL)
	return err
}

// DuckDBStore keeps results in a DuckDB database, one row per task, with the
// full report as a JSON column next to a few queryable scalars.
type DuckDBStore struct {
	db *sql.DB
}

// OpenDuckDB opens (or creates) the database at path and applies the schema.
func OpenDuckDB(path string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open duckdb: %w", err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &DuckDBStore{db: db}, nil
}

// NewDuckDBStore wraps an existing connection; the schema must already be
// applied.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

func (s *DuckDBStore) SaveResult(ctx context.Context, taskID string, report spec.Report, meta Metadata) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("storage: encode result %s: %w", taskID, err)
	}
	seeds, err := json.Marshal(meta.SeedIDs)
	if err != nil {
		return fmt.Errorf("storage: encode seed ids %s: %w", taskID, err)
	}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO results (result_id, task_id, experiment_id, task_index, seed_id, seed_ids, player_mode, hops, restricted, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		 ON CONFLICT (task_id) DO UPDATE SET
		   experiment_id = excluded.experiment_id,
		   task_index = excluded.task_index,
		   seed_id = excluded.seed_id,
		   seed_ids = excluded.seed_ids,
		   player_mode = excluded.player_mode,
		   hops = excluded.hops,
		   restricted = excluded.restricted,
		   report = excluded.report`,
		uuid.NewString(),
		taskID,
		meta.ExperimentID,
		meta.TaskIndex,
		report.SeedID,
		string(seeds),
		string(meta.Mode),
		len(report.Recommendations.Autoplay),
		len(report.Recommendations.Restricted),
		string(data),
	); err != nil {
		return fmt.Errorf("storage: upsert result %s: %w", taskID, err)
	}
	return nil
}

func (s *DuckDBStore) LoadResult(ctx context.Context, taskID string) (Record, error) {
	var (
		raw       string
		expID     string
		taskIndex int
		seedsRaw  string
		mode      string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT report, experiment_id, task_index, seed_ids, player_mode FROM results WHERE task_id = ?`,
		taskID,
	).Scan(&raw, &expID, &taskIndex, &seedsRaw, &mode)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("storage: query result %s: %w", taskID, err)
	}
	rec := Record{
		TaskID: taskID,
		Metadata: Metadata{
			ExperimentID: expID,
			TaskIndex:    taskIndex,
			Mode:         spec.Mode(mode),
		},
	}
	if err := json.Unmarshal([]byte(raw), &rec.Result); err != nil {
		return Record{}, fmt.Errorf("storage: parse result %s: %w", taskID, err)
	}
	if err := json.Unmarshal([]byte(seedsRaw), &rec.Metadata.SeedIDs); err != nil {
		return Record{}, fmt.Errorf("storage: parse seed ids %s: %w", taskID, err)
	}
	return rec, nil
}

func (s *DuckDBStore) ListResults(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id FROM results ORDER BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list results: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list results: %w", err)
	}
	return ids, nil
}

func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
