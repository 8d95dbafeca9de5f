package live

import (
	"ytaudit/internal/audit"
	"ytaudit/internal/batch"
)

// Reduce folds one event into the UI state.
func Reduce(state State, event Event) State {
	switch event.Kind {
	case EventBatch:
		return reduceBatch(state, event.Batch)
	case EventSession:
		return reduceSession(state, event.TaskID, event.Session)
	}
	return state
}

func reduceBatch(state State, e batch.Event) State {
	switch e.Type {
	case batch.EventExperimentStarted:
		state.TotalTasks = e.TotalTasks
		if state.StartedAt.IsZero() {
			state.StartedAt = e.At
		}
		state.LastEvent = "experiment started"
	case batch.EventTaskStarted:
		state.Sleeping = 0
		row, idx := findRow(state.Rows, e.TaskID)
		if idx < 0 {
			row = TaskRow{Index: e.TaskIndex, TaskID: e.TaskID, Attempt: 1}
			state.Counts.Running++
		}
		row.Status = "running"
		row.StartedAt = e.At
		state.Rows = putRow(state.Rows, row, idx)
		state.LastEvent = e.TaskID + " started"
	case batch.EventTaskRetry:
		state.Counts.Retries++
		if row, idx := findRow(state.Rows, e.TaskID); idx >= 0 {
			row.Attempt = e.Attempt
			row.Phase = ""
			row.Training = Progress{}
			row.Collection = Progress{}
			state.Rows = putRow(state.Rows, row, idx)
		}
		state.LastEvent = e.TaskID + " retrying"
	case batch.EventTaskCompleted:
		if row, idx := findRow(state.Rows, e.TaskID); idx >= 0 {
			row.Status = "completed"
			row.Phase = "complete"
			row.FinishedAt = e.At
			state.Rows = putRow(state.Rows, row, idx)
		}
		state.Counts.Running--
		state.Counts.Completed++
		state.LastEvent = e.TaskID + " completed"
	case batch.EventTaskFailed:
		if row, idx := findRow(state.Rows, e.TaskID); idx >= 0 {
			row.Status = "failed"
			row.Phase = "failed"
			row.Error = e.Err
			row.FinishedAt = e.At
			state.Rows = putRow(state.Rows, row, idx)
		}
		state.Counts.Running--
		state.Counts.Failed++
		state.LastEvent = e.TaskID + " failed"
	case batch.EventWaveSleep:
		state.Sleeping = e.Sleep
		state.LastEvent = "sleeping between waves"
	case batch.EventExperimentCompleted:
		state.LastEvent = "experiment completed"
	case batch.EventExperimentFailed:
		state.LastEvent = "experiment failed: " + e.Err
	}
	return state
}

func reduceSession(state State, taskID string, e audit.Event) State {
	row, idx := findRow(state.Rows, taskID)
	if idx < 0 {
		return applyCounts(state, e)
	}
	if row.Mode == "" && e.Mode != "" {
		row.Mode = string(e.Mode)
	}
	switch e.Type {
	case audit.EventBrowserReady:
		row.Phase = "ready"
	case audit.EventTrainingProgress:
		row.Phase = "training"
		row.Training = Progress{Current: e.Current, Total: e.Total}
		if row.Seed == "" {
			row.Seed = e.VideoID
		}
	case audit.EventCollectionProgress:
		row.Phase = "collecting"
		row.Collection = Progress{Current: e.Current, Total: e.Total}
	case audit.EventWatchStarted:
		if row.Seed == "" {
			row.Seed = e.VideoID
		}
	}
	state.Rows = putRow(state.Rows, row, idx)
	return applyCounts(state, e)
}

func applyCounts(state State, e audit.Event) State {
	switch e.Type {
	case audit.EventRestrictedVideo:
		state.Counts.Restricted++
	case audit.EventExtractionEmpty:
		state.Counts.Empty++
	}
	return state
}

func findRow(rows []TaskRow, taskID string) (TaskRow, int) {
	for i, row := range rows {
		if row.TaskID == taskID {
			return row, i
		}
	}
	return TaskRow{}, -1
}

func putRow(rows []TaskRow, row TaskRow, idx int) []TaskRow {
	if idx < 0 {
		return append(rows, row)
	}
	rows[idx] = row
	return rows
}
