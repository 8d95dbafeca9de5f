package live

import (
	"ytaudit/internal/audit"
	"ytaudit/internal/batch"
)

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventBatch carries a supervisor-level event.
	EventBatch EventKind = iota
	// EventSession carries a session event tagged with its task id.
	EventSession
)

// Event carries a UI update payload.
type Event struct {
	Kind    EventKind
	Batch   batch.Event
	TaskID  string
	Session audit.Event
}
