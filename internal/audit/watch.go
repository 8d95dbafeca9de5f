package audit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ytaudit/internal/browser"
)

// pollInterval paces the bounded condition-polling loops.
const (
	pollInterval = 200 * time.Millisecond
	pollTries    = 50
)

// Train watches every seed video in order. Any failed watch aborts training
// and fails the session.
func (s *Session) Train(ctx context.Context, seedIDs []string) error {
	if s.phase != PhaseReady {
		return fmt.Errorf("%w: Train from %s", ErrWrongPhase, s.phase)
	}
	if len(seedIDs) == 0 {
		return fmt.Errorf("audit: seed ids must not be empty")
	}
	s.phase = PhaseTraining
	s.seedIDs = append([]string(nil), seedIDs...)
	total := len(seedIDs)
	s.emit(EventTrainingStarted, func(e *Event) { e.Total = total })

	for i, id := range seedIDs {
		videoID := id
		s.emit(EventTrainingProgress, func(e *Event) {
			e.Current = i + 1
			e.Total = total
			e.VideoID = videoID
		})
		if err := s.watch(ctx, id); err != nil {
			s.phase = PhaseFailed
			s.emit(EventTrainingFailed, func(e *Event) {
				e.VideoID = videoID
				e.Err = err.Error()
			})
			return fmt.Errorf("%w: seed %s: %v", ErrTrainingFailed, id, err)
		}
	}

	s.emit(EventTrainingComplete, func(e *Event) { e.Total = total })
	return nil
}

// watch opens one video, waits until it plays, and suspends the session for
// the computed watch interval.
func (s *Session) watch(ctx context.Context, videoID string) error {
	url := VideoURL(s.mode, videoID)
	s.emit(EventWatchStarted, func(e *Event) {
		e.VideoID = videoID
		e.URL = url
	})

	if err := s.agent.Navigate(ctx, url); err != nil {
		return err
	}
	if err := s.waitURLContains(ctx, videoID); err != nil {
		return err
	}

	video, err := s.waitPlaying(ctx)
	if err != nil {
		s.emit(EventWatchFailed, func(e *Event) {
			e.VideoID = videoID
			e.Err = err.Error()
		})
		return err
	}

	duration := s.videoDuration(ctx, video)
	wait := s.budget.Wait(duration)
	s.emit(EventWatching, func(e *Event) {
		e.VideoID = videoID
		e.Duration = duration
		e.Wait = wait
	})
	if err := s.sleep(ctx, wait); err != nil {
		return err
	}
	s.emit(EventWatchComplete, func(e *Event) { e.VideoID = videoID })
	return nil
}

// waitURLContains polls the displayed address until it contains substr.
func (s *Session) waitURLContains(ctx context.Context, substr string) error {
	for i := 0; i < pollTries; i++ {
		url, err := s.agent.CurrentURL(ctx)
		if err == nil && strings.Contains(url, substr) {
			return nil
		}
		if err := s.sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("audit: address never showed %s: %w", substr, browser.ErrWaitTimeout)
}

// waitPlaying waits for a playable, unpaused media element, forcing a page
// reload between attempts. Exhaustion fails the watch.
func (s *Session) waitPlaying(ctx context.Context) (browser.Element, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		video, err := s.agent.WaitFor(ctx, videoSelector(s.mode), waitTimeout)
		if err == nil {
			playing, perr := s.waitNotPaused(ctx, video)
			if perr != nil {
				return nil, perr
			}
			if playing {
				return video, nil
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		_ = s.agent.Reload(ctx)
		if err := s.sleep(ctx, reloadSettleTime); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("audit: video is not playing")
}

// waitNotPaused polls the player's paused flag until it clears.
func (s *Session) waitNotPaused(ctx context.Context, video browser.Element) (bool, error) {
	for i := 0; i < pollTries; i++ {
		paused, ok, err := video.Attribute(ctx, "paused")
		if err == nil && ok && paused != "true" {
			return true, nil
		}
		if serr := s.sleep(ctx, pollInterval); serr != nil {
			return false, serr
		}
	}
	return false, nil
}

// videoDuration reads the player's reported duration, substituting the
// default when it is unreadable, zero, or not a number.
func (s *Session) videoDuration(ctx context.Context, video browser.Element) float64 {
	raw, ok, err := video.Attribute(ctx, "duration")
	if err != nil || !ok || raw == "" {
		return defaultDuration
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil || duration == 0 || math.IsNaN(duration) {
		return defaultDuration
	}
	return duration
}
