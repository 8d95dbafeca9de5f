package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestDB(t *testing.T) *DuckDBStore {
	t.Helper()
	store, err := OpenDuckDB(filepath.Join(t.TempDir(), "results.duckdb"))
	if err != nil {
		t.Fatalf("OpenDuckDB: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestDuckDBRoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	want := sampleReport("abc123")
	meta := sampleMeta("abc123")
	if err := store.SaveResult(ctx, "task_0001", want, meta); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	got, err := store.LoadResult(ctx, "task_0001")
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if !reflect.DeepEqual(got.Result, want) {
		t.Errorf("result mismatch:\ngot  %+v\nwant %+v", got.Result, want)
	}
	if !reflect.DeepEqual(got.Metadata, meta) {
		t.Errorf("metadata = %+v, want %+v", got.Metadata, meta)
	}
}

func TestDuckDBUpsertReplaces(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	if err := store.SaveResult(ctx, "task_0001", sampleReport("first"), sampleMeta("first")); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := store.SaveResult(ctx, "task_0001", sampleReport("second"), sampleMeta("second")); err != nil {
		t.Fatalf("SaveResult upsert: %v", err)
	}

	got, err := store.LoadResult(ctx, "task_0001")
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if got.Result.SeedID != "second" {
		t.Errorf("seed id = %q, want the upserted value", got.Result.SeedID)
	}
	ids, err := store.ListResults(ctx)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("ids = %v, want a single row after upsert", ids)
	}
}

func TestDuckDBMissingResult(t *testing.T) {
	store := openTestDB(t)
	if _, err := store.LoadResult(context.Background(), "task_9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadResult error = %v, want ErrNotFound", err)
	}
}

func TestDuckDBListOrdered(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	for _, id := range []string{"task_0002", "task_0001"} {
		if err := store.SaveResult(ctx, id, sampleReport(id), sampleMeta(id)); err != nil {
			t.Fatalf("SaveResult %s: %v", id, err)
		}
	}
	ids, err := store.ListResults(ctx)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	want := []string{"task_0001", "task_0002"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}
