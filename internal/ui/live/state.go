package live

import (
	"time"
)

// Progress is a current/total pair for one task phase.
type Progress struct {
	Current int
	Total   int
}

// TaskRow holds UI state for a single task.
type TaskRow struct {
	Index      int
	TaskID     string
	Seed       string
	Mode       string
	Phase      string
	Training   Progress
	Collection Progress
	Attempt    int
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// StatusCounts aggregates tasks by outcome bucket.
type StatusCounts struct {
	Running    int
	Completed  int
	Failed     int
	Retries    int
	Restricted int
	Empty      int
}

// State captures the live UI state for an experiment run.
type State struct {
	Experiment string
	TotalTasks int
	StartedAt  time.Time
	LastEvent  string
	Sleeping   time.Duration
	Rows       []TaskRow
	Counts     StatusCounts
}
