// Command generate_fixture seeds a DuckDB results database with synthetic
// audit reports, for exercising the report and serve commands without
// running a browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ytaudit/internal/batch"
	"ytaudit/internal/spec"
	"ytaudit/internal/storage"

	"github.com/google/uuid"
)

func main() {
	outPath := flag.String("out", "", "output duckdb file path")
	tasks := flag.Int("tasks", 10, "number of fake task results")
	hops := flag.Int("hops", 15, "autoplay hops per task")
	flag.Parse()
	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: generate_fixture --out <duckdb file> [--tasks n] [--hops n]")
		os.Exit(2)
	}
	if err := os.MkdirAll(dirOf(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir output dir: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := generateFixture(ctx, *outPath, *tasks, *hops); err != nil {
		fmt.Fprintf(os.Stderr, "generate fixture: %v\n", err)
		os.Exit(1)
	}
}

func generateFixture(ctx context.Context, path string, tasks, hops int) error {
	store, err := storage.OpenDuckDB(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for i := 0; i < tasks; i++ {
		mode := spec.ModeLong
		if i%2 == 1 {
			mode = spec.ModeShort
		}
		seed := deterministicID("seed", i)
		report := spec.Report{
			TrainingIDs: []string{seed},
			SeedID:      seed,
			PlayerMode:  mode,
			MaxDuration: spec.Seconds(10),
			Recommendations: spec.Recommendations{
				Autoplay: fakeHops(i, hops),
				Sidebar:  fakeBatches(i, hops, 5),
				Preload:  fakeBatches(i+1, hops, 3),
			},
		}
		meta := storage.Metadata{
			ExperimentID: "fixture",
			TaskIndex:    i,
			Mode:         mode,
			SeedIDs:      []string{seed},
		}
		if err := store.SaveResult(ctx, batch.TaskID(i), report, meta); err != nil {
			return err
		}
	}
	return nil
}

func fakeHops(task, hops int) []string {
	out := make([]string, 0, hops)
	for h := 0; h < hops; h++ {
		out = append(out, watchURL(task, h, 0))
	}
	return out
}

func fakeBatches(task, hops, width int) [][]string {
	out := make([][]string, 0, hops)
	for h := 0; h < hops; h++ {
		row := make([]string, 0, width)
		for w := 0; w < width; w++ {
			row = append(row, watchURL(task, h, w+1))
		}
		out = append(out, row)
	}
	return out
}

func watchURL(task, hop, slot int) string {
	return "https://www.youtube.com/watch?v=" + deterministicID(fmt.Sprintf("t%d-h%d", task, hop), slot)
}

// deterministicID derives a stable fake video id so reruns produce
// identical databases.
func deterministicID(kind string, n int) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s-%d", kind, n)))
	return id.String()[:11]
}

func dirOf(path string) string {
	dir := filepath.Dir(path)
	if dir == "" {
		return "."
	}
	return dir
}
