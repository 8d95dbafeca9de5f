package audit

import (
	"context"
	"fmt"
	"strings"

	"ytaudit/internal/browser"
	"ytaudit/internal/spec"
)

// unknownReason is recorded when a restriction notice is visible but its
// explanation cannot be read.
const unknownReason = "unknown(error)"

// Collect advances through hops autoplay recommendations, recording the
// visited path, the recommendation batches shown at each stop, and any
// playback restrictions encountered. A trained session is required.
//
// Failed advances that never change the address consume the session's error
// budget without consuming a hop. Exhausting the error budget fails the
// session with ErrRetriesExhausted; a restriction demanding sign-in fails it
// with ErrSignInRequired. Data gathered before a failure stays available
// through Report.
func (s *Session) Collect(ctx context.Context, hops int) error {
	if s.phase != PhaseTraining {
		return fmt.Errorf("%w: Collect from %s", ErrWrongPhase, s.phase)
	}
	if hops <= 0 {
		return fmt.Errorf("audit: hops must be positive, got %d", hops)
	}
	s.phase = PhaseCollecting
	s.emit(EventCollectionStarted, func(e *Event) { e.Total = hops })

	remaining := hops
	attempts := s.attempts
	for remaining > 0 && attempts > 0 {
		hop := hops - remaining + 1
		s.emit(EventCollectionProgress, func(e *Event) {
			e.Current = hop
			e.Total = hops
		})

		fromURL, err := s.agent.CurrentURL(ctx)
		if err != nil {
			fromURL = ""
		}
		if err := s.agent.SendKeys(ctx, advanceKey(s.mode)); err != nil {
			s.phase = PhaseFailed
			s.emit(EventCollectionFailed, func(e *Event) { e.Err = err.Error() })
			return fmt.Errorf("%w: %v", ErrAdvanceFailed, err)
		}
		moved, err := s.waitURLChanged(ctx, fromURL)
		if err != nil {
			s.phase = PhaseFailed
			s.emit(EventCollectionFailed, func(e *Event) { e.Err = err.Error() })
			return err
		}
		if !moved {
			attempts--
			continue
		}
		if err := s.sleep(ctx, hopSettleTime); err != nil {
			s.phase = PhaseFailed
			return err
		}

		currentURL, err := s.agent.CurrentURL(ctx)
		if err != nil {
			attempts--
			continue
		}
		if err := s.checkRestriction(ctx, currentURL); err != nil {
			s.phase = PhaseFailed
			s.emit(EventCollectionFailed, func(e *Event) {
				e.URL = currentURL
				e.Err = err.Error()
			})
			return err
		}

		s.collectRecommendations(ctx, currentURL)
		s.path = append(s.path, currentURL)
		remaining--
		s.watchCurrent(ctx)
	}

	if remaining > 0 {
		s.phase = PhaseFailed
		s.emit(EventCollectionFailed, func(e *Event) { e.Err = ErrRetriesExhausted.Error() })
		return ErrRetriesExhausted
	}
	s.phase = PhaseComplete
	s.emit(EventCollectionComplete, func(e *Event) { e.Total = hops })
	return nil
}

// waitURLChanged polls the displayed address until it differs from fromURL.
// A timeout is reported as moved=false, not as an error.
func (s *Session) waitURLChanged(ctx context.Context, fromURL string) (bool, error) {
	for i := 0; i < pollTries; i++ {
		url, err := s.agent.CurrentURL(ctx)
		if err == nil && url != fromURL {
			return true, nil
		}
		if err := s.sleep(ctx, pollInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}

// checkRestriction inspects the current page for a visible playback
// restriction notice. A notice demanding sign-in is fatal; any other notice
// is recorded and dismissed so collection can continue. Detection failures
// are treated as no restriction.
func (s *Session) checkRestriction(ctx context.Context, currentURL string) error {
	notice, err := s.agent.WaitFor(ctx, restrictionSelector(s.mode), waitTimeout)
	if err != nil {
		return nil
	}
	// The hidden state surfaces either as a boolean DOM property
	// ("true"/"false") or as a bare HTML attribute (empty string when set).
	if value, ok, aerr := notice.Attribute(ctx, "hidden"); aerr != nil || (ok && value != "false") {
		return nil
	}

	reason := s.restrictionReason(ctx, notice)
	s.restricted = append(s.restricted, spec.RestrictedVideo{URL: currentURL, Reason: reason})
	s.emit(EventRestrictedVideo, func(e *Event) {
		e.URL = currentURL
		e.Reason = reason
	})

	if strings.Contains(strings.ToLower(reason), "sign in") {
		return fmt.Errorf("%w: %s", ErrSignInRequired, currentURL)
	}
	s.dismissRestriction(ctx, notice)
	return nil
}

func (s *Session) restrictionReason(ctx context.Context, notice browser.Element) string {
	var (
		text string
		err  error
	)
	switch s.mode {
	case spec.ModeShort:
		var label browser.Element
		label, err = notice.Find(ctx, selShortReason)
		if err == nil {
			text, err = label.Text(ctx)
		}
	default:
		var label browser.Element
		label, err = s.agent.WaitFor(ctx, selLongReason, waitTimeout)
		if err == nil {
			text, err = label.Text(ctx)
		}
	}
	if err != nil || strings.TrimSpace(text) == "" {
		return unknownReason
	}
	return text
}

// dismissRestriction clicks the notice's confirmation control. Best effort;
// a failed dismissal leaves the overlay for the next advance to shake off.
func (s *Session) dismissRestriction(ctx context.Context, notice browser.Element) {
	button, err := notice.Find(ctx, dismissSelector(s.mode))
	if err != nil {
		return
	}
	_ = button.Click(ctx)
}

// collectRecommendations extracts the recommendation batch shown on the
// current page. Exhausted extraction substitutes an empty batch so a flaky
// page never aborts the session.
func (s *Session) collectRecommendations(ctx context.Context, currentURL string) {
	var (
		batch []string
		err   error
	)
	switch s.mode {
	case spec.ModeShort:
		batch, err = s.preloadBatch(ctx)
	default:
		batch, err = s.sidebarBatch(ctx)
	}
	if err != nil {
		s.emit(EventExtractionEmpty, func(e *Event) {
			e.URL = currentURL
			e.Err = err.Error()
		})
		batch = []string{}
	}
	if batch == nil {
		batch = []string{}
	}
	switch s.mode {
	case spec.ModeShort:
		s.preloads = append(s.preloads, batch)
	default:
		s.sidebars = append(s.sidebars, batch)
	}
}

// sidebarBatch reads the watch-next sidebar's thumbnail links.
func (s *Session) sidebarBatch(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		_, err := s.agent.WaitFor(ctx, selSidebarList, waitTimeout)
		if err == nil {
			links, aerr := s.agent.AttributeAll(ctx, selSidebarThumbnails, "href")
			if aerr == nil {
				return links, nil
			}
			err = aerr
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if serr := s.sleep(ctx, hopSettleTime); serr != nil {
			return nil, serr
		}
	}
	return nil, fmt.Errorf("audit: sidebar extraction failed: %w", lastErr)
}

// preloadBatch reads the preloaded reel players queued behind the active one
// and recovers their video ids from the thumbnail background styles.
func (s *Session) preloadBatch(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		styles, err := s.agent.AttributeAll(ctx, selPreloadPlayers, "style")
		if err == nil {
			ids := make([]string, 0, len(styles))
			for _, style := range styles {
				if id := preloadVideoID(style); id != "" {
					ids = append(ids, prefixShortURL(id))
				}
			}
			return ids, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if serr := s.sleep(ctx, hopSettleTime); serr != nil {
			return nil, serr
		}
	}
	return nil, fmt.Errorf("audit: preload extraction failed: %w", lastErr)
}

// preloadVideoID pulls the video id out of a thumbnail background style,
// which embeds it as ".../vi/<id>/...".
func preloadVideoID(style string) string {
	idx := strings.LastIndex(style, "vi/")
	if idx < 0 {
		return ""
	}
	rest := style[idx+len("vi/"):]
	if cut := strings.IndexByte(rest, '/'); cut >= 0 {
		rest = rest[:cut]
	}
	return rest
}

// watchCurrent watches the video reached by the last hop for its computed
// interval. Duration read failures fall back to the default length.
func (s *Session) watchCurrent(ctx context.Context) {
	duration := float64(defaultDuration)
	if video, err := s.agent.WaitFor(ctx, videoSelector(s.mode), durationTimeout); err == nil {
		duration = s.videoDuration(ctx, video)
	}
	wait := s.budget.Wait(duration)
	s.emit(EventWatching, func(e *Event) {
		e.Duration = duration
		e.Wait = wait
	})
	_ = s.sleep(ctx, wait)
}
