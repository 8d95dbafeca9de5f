// Package batch supervises a whole experiment: it runs audit tasks in
// fixed-width waves, retries failed tasks, persists each report exactly once,
// and keeps the status tracker and process metrics current.
package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"ytaudit/internal/audit"
	"ytaudit/internal/metrics"
	"ytaudit/internal/spec"
	"ytaudit/internal/state"
	"ytaudit/internal/storage"
)

// Auditor is the per-task session surface the supervisor drives.
// audit.Session satisfies it.
type Auditor interface {
	Start(ctx context.Context) error
	Train(ctx context.Context, seedIDs []string) error
	Collect(ctx context.Context, hops int) error
	Report() spec.Report
	CleanUp(ctx context.Context)
}

// SessionFactory builds a fresh session for one task attempt. The sink must
// be wired into the session so progress reaches the tracker.
type SessionFactory func(task spec.TaskSpec, sink audit.EventSink) (Auditor, error)

// SessionObserver receives every session event, tagged with its task id.
type SessionObserver func(taskID string, e audit.Event)

// Dependencies bundles what the supervisor needs. NewSession, Tracker and
// Store are required; the rest default to production implementations.
type Dependencies struct {
	NewSession SessionFactory
	Tracker    *state.Tracker
	Store      storage.Store
	Sink       EventSink
	// ObserveSession receives every session event after the supervisor has
	// processed it, for live display.
	ObserveSession SessionObserver
	// Sleep is the wave pause point. Defaults to a context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// RandInt returns a uniform value in [min, max]. Defaults to math/rand.
	RandInt func(min, max int) int
	Now     func() time.Time
}

// Runner executes one experiment configuration to completion.
type Runner struct {
	cfg     spec.Config
	tasks   []spec.TaskSpec
	session SessionFactory
	tracker *state.Tracker
	store   storage.Store
	sink    EventSink
	observe SessionObserver
	sleep   func(ctx context.Context, d time.Duration) error
	randInt func(min, max int) int
	now     func() time.Time
}

// NewRunner validates the dependencies and prepares the task list.
func NewRunner(cfg spec.Config, tasks []spec.TaskSpec, deps Dependencies) (*Runner, error) {
	if deps.NewSession == nil {
		return nil, fmt.Errorf("batch: session factory is required")
	}
	if deps.Tracker == nil {
		return nil, fmt.Errorf("batch: tracker is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("batch: store is required")
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("batch: no tasks to run")
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.RandInt == nil {
		deps.RandInt = func(min, max int) int {
			if max <= min {
				return min
			}
			return min + rand.IntN(max-min+1)
		}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{
		cfg:     cfg,
		tasks:   tasks,
		session: deps.NewSession,
		tracker: deps.Tracker,
		store:   deps.Store,
		sink:    deps.Sink,
		observe: deps.ObserveSession,
		sleep:   deps.Sleep,
		randInt: deps.RandInt,
		now:     deps.Now,
	}, nil
}

// TaskID formats the canonical task identifier for a batch index.
func TaskID(index int) string {
	return fmt.Sprintf("task_%04d", index)
}

// Run executes all tasks in waves of the configured width, pausing a random
// interval between waves. It returns the context error if cancelled, and
// otherwise nil even when individual tasks were abandoned: per-task outcomes
// live in the tracker and store.
func (r *Runner) Run(ctx context.Context) error {
	total := len(r.tasks)
	if err := r.tracker.Start(total); err != nil {
		return err
	}
	r.emit(EventExperimentStarted, func(e *Event) { e.TotalTasks = total })

	width := r.cfg.Threads
	if width < 1 {
		width = 1
	}
	for start := 0; start < total; start += width {
		if err := ctx.Err(); err != nil {
			return r.failExperiment(err)
		}
		end := start + width
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for idx := start; idx < end; idx++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				r.runTaskWithRetry(ctx, idx, r.tasks[idx])
			}(idx)
		}
		wg.Wait()

		if end < total {
			pause := time.Duration(r.randInt(r.cfg.SleepRange.Min, r.cfg.SleepRange.Max)) * time.Second
			r.emit(EventWaveSleep, func(e *Event) { e.Sleep = pause })
			if err := r.sleep(ctx, pause); err != nil {
				return r.failExperiment(err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return r.failExperiment(err)
	}
	if err := r.tracker.Complete(); err != nil {
		return err
	}
	r.emit(EventExperimentCompleted, func(e *Event) { e.TotalTasks = total })
	return nil
}

func (r *Runner) failExperiment(cause error) error {
	_ = r.tracker.Fail(cause.Error())
	r.emit(EventExperimentFailed, func(e *Event) { e.Err = cause.Error() })
	return cause
}

// runTaskWithRetry drives one task through up to MaxRetries session runs.
// The report is persisted exactly once on the first successful run, and the
// failed-task counter moves exactly once when every attempt is spent.
func (r *Runner) runTaskWithRetry(ctx context.Context, idx int, task spec.TaskSpec) {
	taskID := TaskID(idx)
	mode := string(task.Mode)
	retries := r.cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	r.emit(EventTaskStarted, func(e *Event) {
		e.TaskIndex = idx
		e.TaskID = taskID
	})

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			_ = r.tracker.AddRetry()
			metrics.TaskRetries.Inc()
			r.emit(EventTaskRetry, func(e *Event) {
				e.TaskIndex = idx
				e.TaskID = taskID
				e.Attempt = attempt
			})
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		report, err := r.runOnce(ctx, idx, taskID, task)
		if err == nil {
			r.finishTask(ctx, idx, taskID, task, report)
			return
		}
		lastErr = err
		_ = r.tracker.AddFailedRun()
	}

	_ = r.tracker.SetTaskStatus(taskID, mode, state.StatusFailed, errString(lastErr))
	_ = r.tracker.IncrementFailed()
	metrics.TasksFailed.Inc()
	r.emit(EventTaskFailed, func(e *Event) {
		e.TaskIndex = idx
		e.TaskID = taskID
		e.Err = errString(lastErr)
	})
	_ = r.tracker.ClearCurrentTask(taskID)
}

func (r *Runner) finishTask(ctx context.Context, idx int, taskID string, task spec.TaskSpec, report spec.Report) {
	mode := string(task.Mode)
	meta := storage.Metadata{
		ExperimentID: r.cfg.Name,
		TaskIndex:    idx,
		Mode:         task.Mode,
		SeedIDs:      task.SeedIDs,
	}
	if err := r.store.SaveResult(ctx, taskID, report, meta); err != nil {
		_ = r.tracker.SetTaskStatus(taskID, mode, state.StatusFailed, err.Error())
		_ = r.tracker.IncrementFailed()
		metrics.TasksFailed.Inc()
		r.emit(EventTaskFailed, func(e *Event) {
			e.TaskIndex = idx
			e.TaskID = taskID
			e.Err = err.Error()
		})
		_ = r.tracker.ClearCurrentTask(taskID)
		return
	}

	sidebar := 0
	for _, batch := range report.Recommendations.Sidebar {
		sidebar += len(batch)
	}
	preload := 0
	for _, batch := range report.Recommendations.Preload {
		preload += len(batch)
	}
	_ = r.tracker.AddDataCollected(state.DataCollected{
		TotalRecommendations: sidebar + preload,
		AutoplayPaths:        len(report.Recommendations.Autoplay),
		SidebarRecs:          sidebar,
		PreloadRecs:          preload,
	})
	metrics.HopsCollected.Add(float64(len(report.Recommendations.Autoplay)))

	_ = r.tracker.SetTaskStatus(taskID, mode, state.StatusCompleted, "")
	_ = r.tracker.IncrementCompleted()
	metrics.TasksCompleted.Inc()
	r.emit(EventTaskCompleted, func(e *Event) {
		e.TaskIndex = idx
		e.TaskID = taskID
	})
	_ = r.tracker.ClearCurrentTask(taskID)
}

// runOnce executes a single session attempt for a task.
func (r *Runner) runOnce(ctx context.Context, idx int, taskID string, task spec.TaskSpec) (spec.Report, error) {
	sink := r.sessionSink(taskID, string(task.Mode))
	session, err := r.session(task, sink)
	if err != nil {
		return spec.Report{}, fmt.Errorf("batch: build session for %s: %w", taskID, err)
	}
	defer session.CleanUp(ctx)

	_ = r.tracker.SetCurrentTask(idx, taskID, map[string]state.TaskProgress{
		string(task.Mode): {
			VideoID:    task.SeedID(),
			Mode:       task.Mode,
			Phase:      state.TaskPending,
			Training:   state.Progress{Total: len(task.SeedIDs)},
			Collection: state.Progress{Total: r.cfg.Hops},
			Status:     state.StatusRunning,
		},
	})

	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	started := r.now()

	if err := session.Start(ctx); err != nil {
		return spec.Report{}, err
	}
	if err := session.Train(ctx, task.SeedIDs); err != nil {
		return spec.Report{}, err
	}
	if err := session.Collect(ctx, r.cfg.Hops); err != nil {
		return spec.Report{}, err
	}

	_ = r.tracker.AddSuccessfulRun()
	metrics.TaskDuration.Observe(r.now().Sub(started).Seconds())
	return session.Report(), nil
}

// sessionSink translates session events into tracker and metric updates,
// then forwards them to the live observer.
func (r *Runner) sessionSink(taskID, mode string) audit.EventSink {
	return func(e audit.Event) {
		switch e.Type {
		case audit.EventTrainingProgress:
			_ = r.tracker.UpdateTaskProgress(taskID, mode, state.TaskTraining, e.Current, e.Total)
		case audit.EventCollectionProgress:
			_ = r.tracker.UpdateTaskProgress(taskID, mode, state.TaskCollection, e.Current, e.Total)
		case audit.EventRestrictedVideo:
			_ = r.tracker.AddRestricted(1)
			metrics.RestrictedVideos.Inc()
		case audit.EventExtractionEmpty:
			_ = r.tracker.AddEmptyCollection()
			metrics.EmptyCollections.Inc()
		}
		if r.observe != nil {
			r.observe(taskID, e)
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
