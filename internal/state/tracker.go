// Package state tracks batch experiment progress and persists it as a JSON
// snapshot after every mutation, so external observers can follow a run by
// polling one file.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ytaudit/internal/spec"
)

// Status is the experiment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TaskPhase is the phase a sub-task is currently in.
type TaskPhase string

const (
	TaskPending    TaskPhase = "pending"
	TaskTraining   TaskPhase = "training"
	TaskCollection TaskPhase = "collection"
	TaskComplete   TaskPhase = "complete"
	TaskFailed     TaskPhase = "failed"
)

// Progress is a current/total counter pair.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// TaskProgress is the visible state of one sub-task.
type TaskProgress struct {
	VideoID    string    `json:"video_id"`
	Mode       spec.Mode `json:"mode"`
	Phase      TaskPhase `json:"phase"`
	Training   Progress  `json:"training_progress"`
	Collection Progress  `json:"collection_progress"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// BatchProgress counts task outcomes across the batch.
type BatchProgress struct {
	TotalTasks       int `json:"total_tasks"`
	CompletedTasks   int `json:"completed_tasks"`
	FailedTasks      int `json:"failed_tasks"`
	CurrentTaskIndex int `json:"current_task_index"`
}

// Health counts run-level reliability signals.
type Health struct {
	SuccessfulRuns   int `json:"successful_runs"`
	FailedRuns       int `json:"failed_runs"`
	Retries          int `json:"retries"`
	RestrictedVideos int `json:"restricted_videos"`
	EmptyCollections int `json:"empty_collections"`
}

// DataCollected counts what the batch has gathered so far.
type DataCollected struct {
	TotalRecommendations int `json:"total_recommendations"`
	AutoplayPaths        int `json:"autoplay_paths"`
	SidebarRecs          int `json:"sidebar_recs"`
	PreloadRecs          int `json:"preload_recs"`
}

// Snapshot is the full persisted experiment state.
type Snapshot struct {
	ExperimentID   string                             `json:"experiment_id"`
	Status         Status                             `json:"status"`
	StartedAt      *time.Time                         `json:"started_at"`
	UpdatedAt      time.Time                          `json:"updated_at"`
	CompletedAt    *time.Time                         `json:"completed_at"`
	ElapsedSeconds int64                              `json:"elapsed_seconds"`
	Error          string                             `json:"error,omitempty"`
	Batch          BatchProgress                      `json:"batch_progress"`
	CurrentTasks   map[string]map[string]TaskProgress `json:"current_tasks"`
	Health         Health                             `json:"health"`
	Data           DataCollected                      `json:"data_collected"`
}

// Tracker serializes all snapshot mutations behind one lock and rewrites the
// status file atomically (temp file then rename) after each one.
type Tracker struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
	snap Snapshot
}

// StatusFileName is the snapshot file written inside the experiment directory.
const StatusFileName = "status.json"

// NewTracker creates the experiment directory if needed and returns a tracker
// with a pending snapshot. Nothing is written until the first mutation.
func NewTracker(experimentID, dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: create experiment dir: %w", err)
	}
	t := &Tracker{
		path: filepath.Join(dir, StatusFileName),
		now:  time.Now,
		snap: Snapshot{
			ExperimentID: experimentID,
			Status:       StatusPending,
			Batch:        BatchProgress{CurrentTaskIndex: -1},
			CurrentTasks: map[string]map[string]TaskProgress{},
		},
	}
	t.snap.UpdatedAt = t.now().UTC()
	return t, nil
}

// Path returns the status file location.
func (t *Tracker) Path() string { return t.path }

// Start marks the experiment running.
func (t *Tracker) Start(totalTasks int) error {
	return t.mutate(func(s *Snapshot) {
		now := t.now().UTC()
		s.Status = StatusRunning
		s.StartedAt = &now
		s.Batch.TotalTasks = totalTasks
	})
}

// Complete marks the experiment finished.
func (t *Tracker) Complete() error {
	return t.mutate(func(s *Snapshot) {
		now := t.now().UTC()
		s.Status = StatusCompleted
		s.CompletedAt = &now
	})
}

// Fail marks the experiment failed with a message.
func (t *Tracker) Fail(errMsg string) error {
	return t.mutate(func(s *Snapshot) {
		now := t.now().UTC()
		s.Status = StatusFailed
		s.Error = errMsg
		s.CompletedAt = &now
	})
}

// SetCurrentTask registers the sub-tasks of one in-flight task. Entries for
// other in-flight tasks are kept, so concurrent tasks remain visible.
func (t *Tracker) SetCurrentTask(taskIndex int, taskID string, tasks map[string]TaskProgress) error {
	return t.mutate(func(s *Snapshot) {
		s.Batch.CurrentTaskIndex = taskIndex
		copied := make(map[string]TaskProgress, len(tasks))
		for mode, p := range tasks {
			copied[mode] = p
		}
		s.CurrentTasks[taskID] = copied
	})
}

// ClearCurrentTask drops a finished task from the in-flight set.
func (t *Tracker) ClearCurrentTask(taskID string) error {
	return t.mutate(func(s *Snapshot) {
		delete(s.CurrentTasks, taskID)
	})
}

// UpdateTaskProgress advances one sub-task's phase counters. Unknown task or
// mode keys are ignored.
func (t *Tracker) UpdateTaskProgress(taskID, mode string, phase TaskPhase, current, total int) error {
	return t.mutate(func(s *Snapshot) {
		modes, ok := s.CurrentTasks[taskID]
		if !ok {
			return
		}
		p, ok := modes[mode]
		if !ok {
			return
		}
		p.Phase = phase
		switch phase {
		case TaskTraining:
			p.Training = Progress{Current: current, Total: total}
		case TaskCollection:
			p.Collection = Progress{Current: current, Total: total}
		}
		modes[mode] = p
	})
}

// SetTaskStatus sets one sub-task's terminal status and optional error.
func (t *Tracker) SetTaskStatus(taskID, mode string, status Status, errMsg string) error {
	return t.mutate(func(s *Snapshot) {
		modes, ok := s.CurrentTasks[taskID]
		if !ok {
			return
		}
		p, ok := modes[mode]
		if !ok {
			return
		}
		p.Status = status
		p.Error = errMsg
		switch status {
		case StatusCompleted:
			p.Phase = TaskComplete
		case StatusFailed:
			p.Phase = TaskFailed
		}
		modes[mode] = p
	})
}

// IncrementCompleted bumps the completed task counter.
func (t *Tracker) IncrementCompleted() error {
	return t.mutate(func(s *Snapshot) { s.Batch.CompletedTasks++ })
}

// IncrementFailed bumps the failed task counter.
func (t *Tracker) IncrementFailed() error {
	return t.mutate(func(s *Snapshot) { s.Batch.FailedTasks++ })
}

// AddSuccessfulRun records a session run that finished cleanly.
func (t *Tracker) AddSuccessfulRun() error {
	return t.mutate(func(s *Snapshot) { s.Health.SuccessfulRuns++ })
}

// AddFailedRun records a session run that failed.
func (t *Tracker) AddFailedRun() error {
	return t.mutate(func(s *Snapshot) { s.Health.FailedRuns++ })
}

// AddRetry records a task retry.
func (t *Tracker) AddRetry() error {
	return t.mutate(func(s *Snapshot) { s.Health.Retries++ })
}

// AddRestricted records n restriction notices.
func (t *Tracker) AddRestricted(n int) error {
	return t.mutate(func(s *Snapshot) { s.Health.RestrictedVideos += n })
}

// AddEmptyCollection records a recommendation extraction that came back empty.
func (t *Tracker) AddEmptyCollection() error {
	return t.mutate(func(s *Snapshot) { s.Health.EmptyCollections++ })
}

// AddDataCollected adds the given counts to the data counters.
func (t *Tracker) AddDataCollected(d DataCollected) error {
	return t.mutate(func(s *Snapshot) {
		s.Data.TotalRecommendations += d.TotalRecommendations
		s.Data.AutoplayPaths += d.AutoplayPaths
		s.Data.SidebarRecs += d.SidebarRecs
		s.Data.PreloadRecs += d.PreloadRecs
	})
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copySnapshot(t.snap)
}

// LoadExisting replaces the in-memory state with the persisted snapshot, if
// one exists. It reports whether a snapshot was loaded.
func (t *Tracker) LoadExisting() (bool, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("state: read %s: %w", t.path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, fmt.Errorf("state: parse %s: %w", t.path, err)
	}
	if snap.CurrentTasks == nil {
		snap.CurrentTasks = map[string]map[string]TaskProgress{}
	}
	t.mu.Lock()
	t.snap = snap
	t.mu.Unlock()
	return true, nil
}

func (t *Tracker) mutate(apply func(*Snapshot)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply(&t.snap)
	t.snap.UpdatedAt = t.now().UTC()
	if t.snap.StartedAt != nil {
		t.snap.ElapsedSeconds = int64(t.now().UTC().Sub(*t.snap.StartedAt).Seconds())
	}
	return t.write()
}

// write persists the snapshot atomically: a temp file in the same directory
// renamed over the target, so readers never see a partial file.
func (t *Tracker) write() error {
	data, err := json.MarshalIndent(t.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode snapshot: %w", err)
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("state: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("state: replace %s: %w", t.path, err)
	}
	return nil
}

func copySnapshot(s Snapshot) Snapshot {
	out := s
	out.CurrentTasks = make(map[string]map[string]TaskProgress, len(s.CurrentTasks))
	for id, modes := range s.CurrentTasks {
		copied := make(map[string]TaskProgress, len(modes))
		for mode, p := range modes {
			copied[mode] = p
		}
		out.CurrentTasks[id] = copied
	}
	if s.StartedAt != nil {
		started := *s.StartedAt
		out.StartedAt = &started
	}
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
