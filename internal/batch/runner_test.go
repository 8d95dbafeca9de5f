package batch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"ytaudit/internal/audit"
	"ytaudit/internal/spec"
	"ytaudit/internal/state"
	"ytaudit/internal/storage"
)

type countingStore struct {
	mu    sync.Mutex
	saves map[string]int
	metas map[string]storage.Metadata
	fail  error
}

func newCountingStore() *countingStore {
	return &countingStore{saves: map[string]int{}, metas: map[string]storage.Metadata{}}
}

func (s *countingStore) SaveResult(_ context.Context, taskID string, _ spec.Report, meta storage.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.saves[taskID]++
	s.metas[taskID] = meta
	return nil
}

func (s *countingStore) LoadResult(context.Context, string) (storage.Record, error) {
	return storage.Record{}, errors.New("not implemented")
}

func (s *countingStore) ListResults(context.Context) ([]string, error) { return nil, nil }

func (s *countingStore) Close() error { return nil }

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.saves {
		n += c
	}
	return n
}

// scriptedAuditor fails its first failures runs, then succeeds.
type scriptedAuditor struct {
	script *auditorScript
	sink   audit.EventSink
}

type auditorScript struct {
	mu       sync.Mutex
	failures int
	starts   int
	cleanups int
	emit     []audit.Event
}

func (a *scriptedAuditor) Start(ctx context.Context) error {
	a.script.mu.Lock()
	defer a.script.mu.Unlock()
	a.script.starts++
	if a.script.failures > 0 {
		a.script.failures--
		return audit.ErrInitFailed
	}
	return nil
}

func (a *scriptedAuditor) Train(ctx context.Context, seedIDs []string) error { return nil }

func (a *scriptedAuditor) Collect(ctx context.Context, hops int) error {
	if a.sink != nil {
		a.script.mu.Lock()
		events := append([]audit.Event(nil), a.script.emit...)
		a.script.mu.Unlock()
		for _, e := range events {
			a.sink(e)
		}
	}
	return nil
}

func (a *scriptedAuditor) Report() spec.Report {
	return spec.Report{
		SeedID:     "abc123",
		PlayerMode: spec.ModeLong,
		Recommendations: spec.Recommendations{
			Autoplay: []string{"u1", "u2"},
			Sidebar:  [][]string{{"a", "b"}, {"c"}},
		},
	}
}

func (a *scriptedAuditor) CleanUp(ctx context.Context) {
	a.script.mu.Lock()
	a.script.cleanups++
	a.script.mu.Unlock()
}

func testConfig() spec.Config {
	return spec.Config{
		Name:       "test-exp",
		Hops:       5,
		Threads:    1,
		MaxRetries: 3,
		SleepRange: spec.SleepRange{Min: 2, Max: 2},
	}
}

func testTracker(t *testing.T) *state.Tracker {
	t.Helper()
	tr, err := state.NewTracker("test-exp", t.TempDir())
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func instantSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestRunner(t *testing.T, cfg spec.Config, tasks []spec.TaskSpec, script *auditorScript, store *countingStore, sink EventSink) (*Runner, *state.Tracker) {
	t.Helper()
	tracker := testTracker(t)
	runner, err := NewRunner(cfg, tasks, Dependencies{
		NewSession: func(task spec.TaskSpec, sink audit.EventSink) (Auditor, error) {
			return &scriptedAuditor{script: script, sink: sink}, nil
		},
		Tracker: tracker,
		Store:   store,
		Sink:    sink,
		Sleep:   instantSleep,
		RandInt: func(min, max int) int { return min },
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner, tracker
}

func task(seed string) spec.TaskSpec {
	return spec.TaskSpec{SeedIDs: []string{seed}, Mode: spec.ModeLong, Label: seed}
}

func TestAbandonedTaskCountsOnce(t *testing.T) {
	script := &auditorScript{failures: 99}
	store := newCountingStore()
	runner, tracker := newTestRunner(t, testConfig(), []spec.TaskSpec{task("abc")}, script, store, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.total() != 0 {
		t.Errorf("saves = %d, want 0 for an abandoned task", store.total())
	}
	snap := tracker.Snapshot()
	if snap.Batch.FailedTasks != 1 {
		t.Errorf("failed tasks = %d, want exactly 1", snap.Batch.FailedTasks)
	}
	if snap.Batch.CompletedTasks != 0 {
		t.Errorf("completed tasks = %d, want 0", snap.Batch.CompletedTasks)
	}
	if snap.Health.Retries != 2 {
		t.Errorf("retries = %d, want 2 for three attempts", snap.Health.Retries)
	}
	if snap.Health.FailedRuns != 3 {
		t.Errorf("failed runs = %d, want 3", snap.Health.FailedRuns)
	}
	if script.cleanups != 3 {
		t.Errorf("cleanups = %d, want one per attempt", script.cleanups)
	}
	// The experiment itself still completes; task outcomes live in the counters.
	if snap.Status != state.StatusCompleted {
		t.Errorf("experiment status = %s, want %s", snap.Status, state.StatusCompleted)
	}
}

func TestRetryThenSuccessPersistsOnce(t *testing.T) {
	script := &auditorScript{failures: 1}
	store := newCountingStore()
	runner, tracker := newTestRunner(t, testConfig(), []spec.TaskSpec{task("abc")}, script, store, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := store.saves["task_0000"]; got != 1 {
		t.Errorf("saves for task_0000 = %d, want exactly 1", got)
	}
	meta := store.metas["task_0000"]
	if meta.ExperimentID != "test-exp" || meta.TaskIndex != 0 {
		t.Errorf("metadata = %+v, want the experiment name and task index", meta)
	}
	if meta.Mode != spec.ModeLong || !reflect.DeepEqual(meta.SeedIDs, []string{"abc"}) {
		t.Errorf("metadata = %+v, want the task mode and seed ids", meta)
	}
	snap := tracker.Snapshot()
	if snap.Batch.CompletedTasks != 1 || snap.Batch.FailedTasks != 0 {
		t.Errorf("batch = %+v, want one completed and none failed", snap.Batch)
	}
	if snap.Health.Retries != 1 {
		t.Errorf("retries = %d, want 1", snap.Health.Retries)
	}
	if snap.Health.SuccessfulRuns != 1 || snap.Health.FailedRuns != 1 {
		t.Errorf("health = %+v", snap.Health)
	}
	if snap.Data.AutoplayPaths != 2 || snap.Data.SidebarRecs != 3 {
		t.Errorf("data collected = %+v", snap.Data)
	}
	if len(snap.CurrentTasks) != 0 {
		t.Errorf("current tasks not cleared: %v", snap.CurrentTasks)
	}
}

func TestWaveSleepBetweenWaves(t *testing.T) {
	script := &auditorScript{}
	store := newCountingStore()
	cfg := testConfig()
	cfg.Threads = 2
	cfg.SleepRange = spec.SleepRange{Min: 7, Max: 7}

	var mu sync.Mutex
	var sleeps []time.Duration
	sink := func(e Event) {
		if e.Type == EventWaveSleep {
			mu.Lock()
			sleeps = append(sleeps, e.Sleep)
			mu.Unlock()
		}
	}
	tasks := []spec.TaskSpec{task("a"), task("b"), task("c"), task("d")}
	runner, tracker := newTestRunner(t, cfg, tasks, script, store, sink)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.total() != 4 {
		t.Errorf("saves = %d, want 4", store.total())
	}
	if len(sleeps) != 1 {
		t.Fatalf("wave sleeps = %d, want exactly 1 between 2 waves", len(sleeps))
	}
	if sleeps[0] != 7*time.Second {
		t.Errorf("sleep = %s, want 7s", sleeps[0])
	}
	if tracker.Snapshot().Batch.CompletedTasks != 4 {
		t.Errorf("completed = %d, want 4", tracker.Snapshot().Batch.CompletedTasks)
	}
}

func TestSessionEventsUpdateTracker(t *testing.T) {
	script := &auditorScript{
		emit: []audit.Event{
			{Type: audit.EventCollectionProgress, Current: 3, Total: 5},
			{Type: audit.EventRestrictedVideo, URL: "u", Reason: "age"},
			{Type: audit.EventExtractionEmpty, URL: "u"},
		},
	}
	store := newCountingStore()
	runner, tracker := newTestRunner(t, testConfig(), []spec.TaskSpec{task("abc")}, script, store, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := tracker.Snapshot()
	if snap.Health.RestrictedVideos != 1 {
		t.Errorf("restricted = %d, want 1", snap.Health.RestrictedVideos)
	}
	if snap.Health.EmptyCollections != 1 {
		t.Errorf("empty collections = %d, want 1", snap.Health.EmptyCollections)
	}
}

func TestSaveFailureAbandonsTask(t *testing.T) {
	script := &auditorScript{}
	store := newCountingStore()
	store.fail = errors.New("disk full")
	runner, tracker := newTestRunner(t, testConfig(), []spec.TaskSpec{task("abc")}, script, store, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := tracker.Snapshot()
	if snap.Batch.FailedTasks != 1 || snap.Batch.CompletedTasks != 0 {
		t.Errorf("batch = %+v, want the unpersisted task counted failed", snap.Batch)
	}
}

func TestCancelledContextFailsExperiment(t *testing.T) {
	script := &auditorScript{}
	store := newCountingStore()
	runner, tracker := newTestRunner(t, testConfig(), []spec.TaskSpec{task("abc")}, script, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if tracker.Snapshot().Status != state.StatusFailed {
		t.Errorf("status = %s, want %s", tracker.Snapshot().Status, state.StatusFailed)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	tracker := testTracker(t)
	_, err := NewRunner(testConfig(), nil, Dependencies{
		NewSession: func(spec.TaskSpec, audit.EventSink) (Auditor, error) { return nil, nil },
		Tracker:    tracker,
		Store:      newCountingStore(),
	})
	if err == nil {
		t.Fatal("NewRunner accepted an empty task list")
	}
}
