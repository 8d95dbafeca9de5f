// Package audit implements the per-task session state machine: train the
// recommender on seed videos, then follow autoplay hops collecting the
// recommendations and restriction notices the platform surfaces.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ytaudit/internal/browser"
	"ytaudit/internal/spec"
)

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseReady         Phase = "ready"
	PhaseTraining      Phase = "training"
	PhaseCollecting    Phase = "collecting"
	PhaseComplete      Phase = "complete"
	PhaseFailed        Phase = "failed"
)

// Session failure classes. The supervisor retries whole sessions; none of
// these are retried in place.
var (
	// ErrInitFailed means the browser never stabilized.
	ErrInitFailed = errors.New("audit: browser init failed")
	// ErrTrainingFailed means a seed video could not be watched.
	ErrTrainingFailed = errors.New("audit: training failed")
	// ErrAdvanceFailed means the next-video gesture could not be sent.
	ErrAdvanceFailed = errors.New("audit: advance gesture failed")
	// ErrSignInRequired means the platform gated continuation behind login.
	ErrSignInRequired = errors.New("audit: sign-in required")
	// ErrRetriesExhausted means the hop retry budget ran out.
	ErrRetriesExhausted = errors.New("audit: retries exhausted")
	// ErrWrongPhase means an operation was called out of order.
	ErrWrongPhase = errors.New("audit: operation not valid in this phase")
)

// defaultDuration is substituted when a video's length cannot be read.
const defaultDuration = 180

// Timeouts for waits against the browsing agent. Every wait is bounded.
const (
	waitTimeout      = 10 * time.Second
	durationTimeout  = 60 * time.Second
	reloadSettleTime = 2 * time.Second
	hopSettleTime    = 1 * time.Second
)

// LaunchFunc acquires a fresh browsing agent for one session.
type LaunchFunc func(ctx context.Context) (browser.Agent, error)

// Config assembles a session's dependencies.
type Config struct {
	Mode   spec.Mode
	Budget spec.WatchBudget
	// Attempts bounds every internal retry loop. Defaults to 5.
	Attempts int
	Launch   LaunchFunc
	Sink     EventSink
	// ClearBrowsingData requests the non-destructive teardown variant that
	// also drops cookies and history before releasing the browser.
	ClearBrowsingData bool
	// Sleep is the cooperative suspension point used for watch intervals.
	// Defaults to a context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now stamps emitted events. Defaults to time.Now.
	Now func() time.Time
}

// Session owns one browsing agent and walks it through the audit protocol.
// A session is single-use: run it, read its report, tear it down.
type Session struct {
	mode     spec.Mode
	budget   spec.WatchBudget
	attempts int
	launch   LaunchFunc
	sink     EventSink
	clear    bool
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	agent browser.Agent
	phase Phase

	seedIDs    []string
	path       []string
	sidebars   [][]string
	preloads   [][]string
	restricted []spec.RestrictedVideo

	cleanupOnce sync.Once
}

// New validates the config and returns an uninitialized session.
func New(cfg Config) (*Session, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("audit: invalid mode %q", cfg.Mode)
	}
	if err := cfg.Budget.Validate(); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	if cfg.Launch == nil {
		return nil, fmt.Errorf("audit: launch func is required")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 5
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		mode:     cfg.Mode,
		budget:   cfg.Budget,
		attempts: cfg.Attempts,
		launch:   cfg.Launch,
		sink:     cfg.Sink,
		clear:    cfg.ClearBrowsingData,
		sleep:    cfg.Sleep,
		now:      cfg.Now,
		phase:    PhaseUninitialized,
	}, nil
}

// Phase returns the current lifecycle state.
func (s *Session) Phase() Phase {
	return s.phase
}

// Start acquires the browsing agent, retrying the launch up to the attempt
// cap. Exhaustion is fatal for the session.
func (s *Session) Start(ctx context.Context) error {
	if s.phase != PhaseUninitialized {
		return fmt.Errorf("%w: Start from %s", ErrWrongPhase, s.phase)
	}
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		agent, err := s.launch(ctx)
		if err == nil {
			s.agent = agent
			s.phase = PhaseReady
			s.emit(EventBrowserReady, nil)
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	s.phase = PhaseFailed
	s.emit(EventBrowserInitFailed, func(e *Event) {
		if lastErr != nil {
			e.Err = lastErr.Error()
		}
	})
	return fmt.Errorf("%w: %v", ErrInitFailed, lastErr)
}

// CleanUp releases the browsing agent. It is mandatory on every exit path,
// idempotent, and never fails: best-effort browser cleanup swallows its own
// errors.
func (s *Session) CleanUp(ctx context.Context) {
	s.cleanupOnce.Do(func() {
		s.emit(EventCleanupStarted, nil)
		if s.agent != nil {
			if s.clear {
				_ = s.agent.ClearBrowsingData(ctx)
			}
			_ = s.agent.Close()
			s.agent = nil
		}
		s.emit(EventCleanupComplete, nil)
	})
}

// Report builds the immutable result from whatever the session has gathered.
// Valid from Complete or from a partially advanced Failed state; it never
// mutates session state.
func (s *Session) Report() spec.Report {
	report := spec.Report{
		SeedID:      "",
		PlayerMode:  s.mode,
		MaxDuration: s.budget,
		Recommendations: spec.Recommendations{
			Autoplay:   append([]string(nil), s.path...),
			Sidebar:    copyBatches(s.sidebars),
			Preload:    copyBatches(s.preloads),
			Restricted: append([]spec.RestrictedVideo(nil), s.restricted...),
		},
	}
	if len(s.seedIDs) > 0 {
		report.SeedID = s.seedIDs[len(s.seedIDs)-1]
	}
	if len(s.seedIDs) > 1 {
		report.TrainingIDs = append([]string(nil), s.seedIDs[:len(s.seedIDs)-1]...)
	}
	return report
}

func copyBatches(batches [][]string) [][]string {
	if batches == nil {
		return nil
	}
	out := make([][]string, len(batches))
	for i, batch := range batches {
		out[i] = append([]string(nil), batch...)
	}
	return out
}

// sleepContext blocks for d or until the context is done.
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
