package audit

import (
	"ytaudit/internal/browser"
	"ytaudit/internal/spec"
)

// Canonical address prefixes for the two player surfaces.
const (
	LongURLPrefix  = "https://www.youtube.com/watch?v="
	ShortURLPrefix = "https://www.youtube.com/shorts/"
)

// VideoURL returns the canonical address for a video in the given mode.
func VideoURL(mode spec.Mode, id string) string {
	if mode == spec.ModeShort {
		return ShortURLPrefix + id
	}
	return LongURLPrefix + id
}

// prefixShortURL turns a bare Shorts ID into a canonical address. Empty IDs
// stay empty so extraction noise is visible downstream.
func prefixShortURL(id string) string {
	if id == "" {
		return ""
	}
	return ShortURLPrefix + id
}

const (
	selLongVideo  browser.Selector = ".//video"
	selShortVideo browser.Selector = ".//ytd-reel-video-renderer[@is-active]//video"

	selSidebarList       browser.Selector = ".//ytd-watch-next-secondary-results-renderer"
	selSidebarThumbnails browser.Selector = ".//ytd-watch-next-secondary-results-renderer//a[@id='thumbnail']"
	selPreloadPlayers    browser.Selector = ".//ytd-reel-video-renderer[not(@is-active)]//div[@id='player-container']"

	selLongRestriction  browser.Selector = ".//div[@id='player']/yt-playability-error-supported-renderers"
	selShortRestriction browser.Selector = ".//ytd-reel-video-renderer[@is-active]//yt-playability-error-supported-renderers"
	selLongReason       browser.Selector = ".//yt-playability-error-supported-renderers//div[@id='info']"
	selShortReason      browser.Selector = ".//div[@id='container']"
	selLongDismiss      browser.Selector = ".//button"
	selShortDismiss     browser.Selector = ".//button-view-model"
)

// videoSelector returns the active player element for a mode.
func videoSelector(mode spec.Mode) browser.Selector {
	if mode == spec.ModeShort {
		return selShortVideo
	}
	return selLongVideo
}

// restrictionSelector returns the playability-error container for a mode.
func restrictionSelector(mode spec.Mode) browser.Selector {
	if mode == spec.ModeShort {
		return selShortRestriction
	}
	return selLongRestriction
}

// dismissSelector returns the restriction-notice confirm button for a mode.
func dismissSelector(mode spec.Mode) browser.Selector {
	if mode == spec.ModeShort {
		return selShortDismiss
	}
	return selLongDismiss
}

// advanceKey returns the input gesture that plays the next video.
func advanceKey(mode spec.Mode) browser.Key {
	if mode == spec.ModeShort {
		return browser.KeyArrowDown
	}
	return browser.KeyShiftN
}
