package audit

import (
	"time"

	"ytaudit/internal/spec"
)

// EventType identifies a session progress event for observers.
type EventType string

const (
	// EventBrowserReady marks a launched, stabilized browser.
	EventBrowserReady EventType = "browser_ready"
	// EventBrowserInitFailed marks launch failure after all attempts.
	EventBrowserInitFailed EventType = "browser_init_failed"
	// EventTrainingStarted marks the start of the seed-watching phase.
	EventTrainingStarted EventType = "training_started"
	// EventTrainingProgress marks one seed video being watched.
	EventTrainingProgress EventType = "training_progress"
	// EventTrainingFailed marks an aborted training phase.
	EventTrainingFailed EventType = "training_failed"
	// EventTrainingComplete marks a finished training phase.
	EventTrainingComplete EventType = "training_complete"
	// EventWatchStarted marks navigation to a video.
	EventWatchStarted EventType = "watch_started"
	// EventWatching marks the start of the computed watch interval.
	EventWatching EventType = "watching"
	// EventWatchFailed marks a video that never started playing.
	EventWatchFailed EventType = "watch_failed"
	// EventWatchComplete marks a finished watch.
	EventWatchComplete EventType = "watch_complete"
	// EventCollectionStarted marks the start of the hop phase.
	EventCollectionStarted EventType = "collection_started"
	// EventCollectionProgress marks one hop being attempted.
	EventCollectionProgress EventType = "collection_progress"
	// EventRestrictedVideo marks a content-restriction notice.
	EventRestrictedVideo EventType = "restricted_video"
	// EventExtractionEmpty marks a recommendation extraction that gave up
	// and substituted an empty batch.
	EventExtractionEmpty EventType = "extraction_empty"
	// EventCollectionFailed marks an aborted hop phase.
	EventCollectionFailed EventType = "collection_failed"
	// EventCollectionComplete marks a finished hop phase.
	EventCollectionComplete EventType = "collection_complete"
	// EventCleanupStarted marks the start of session teardown.
	EventCleanupStarted EventType = "cleanup_started"
	// EventCleanupComplete marks finished teardown.
	EventCleanupComplete EventType = "cleanup_complete"
)

// Event is one immutable progress record emitted by a session.
type Event struct {
	Type     EventType
	At       time.Time
	Mode     spec.Mode
	VideoID  string
	URL      string
	Reason   string
	Current  int
	Total    int
	Duration float64
	Wait     time.Duration
	Err      string
}

// EventSink receives session events. Sinks must not block: slow observers
// stall the owning session's worker.
type EventSink func(Event)

func (s *Session) emit(eventType EventType, mutate func(*Event)) {
	if s.sink == nil {
		return
	}
	event := Event{Type: eventType, At: s.now(), Mode: s.mode}
	if mutate != nil {
		mutate(&event)
	}
	s.sink(event)
}
