package batch

import "time"

// EventType labels a batch-level event.
type EventType string

const (
	EventExperimentStarted   EventType = "experiment_started"
	EventExperimentCompleted EventType = "experiment_completed"
	EventExperimentFailed    EventType = "experiment_failed"
	EventTaskStarted         EventType = "task_started"
	EventTaskRetry           EventType = "task_retry"
	EventTaskCompleted       EventType = "task_completed"
	EventTaskFailed          EventType = "task_failed"
	EventWaveSleep           EventType = "wave_sleep"
)

// Event is one observation from the batch supervisor.
type Event struct {
	Type       EventType
	At         time.Time
	TaskIndex  int
	TaskID     string
	Attempt    int
	TotalTasks int
	Sleep      time.Duration
	Err        string
}

// EventSink receives batch events. A nil sink drops them.
type EventSink func(Event)

func (r *Runner) emit(t EventType, mutate func(*Event)) {
	if r.sink == nil {
		return
	}
	e := Event{Type: t, At: r.now()}
	if mutate != nil {
		mutate(&e)
	}
	r.sink(e)
}
