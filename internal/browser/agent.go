// Package browser defines the browsing-agent boundary the audit session
// drives, together with a Chrome DevTools implementation. Everything
// DOM-specific stays behind the Agent interface so sessions can run against
// a fake in tests.
package browser

import (
	"context"
	"errors"
	"time"
)

// Selector identifies an on-page element by XPath.
type Selector string

// Key is an input gesture the agent can simulate.
type Key string

const (
	// KeyShiftN advances the long-form player to the next video.
	KeyShiftN Key = "shift+n"
	// KeyArrowDown advances the Shorts player to the next reel.
	KeyArrowDown Key = "arrow-down"
)

// ErrWaitTimeout reports that a bounded wait expired before its condition held.
var ErrWaitTimeout = errors.New("browser: wait timed out")

// Element is a handle to one on-page element.
type Element interface {
	// Attribute reads an attribute or element property by name. ok is false
	// when neither exists.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)
	// Text returns the element's visible text content.
	Text(ctx context.Context) (string, error)
	// Click dispatches a click on the element.
	Click(ctx context.Context) error
	// Find resolves a relative selector scoped under this element.
	Find(ctx context.Context, sel Selector) (Element, error)
}

// Agent is the browsing capability an audit session owns. Implementations
// must be safe for use by a single session goroutine; they are never shared.
type Agent interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// WaitFor blocks until the selector resolves to a present element or the
	// timeout expires, returning ErrWaitTimeout in the latter case.
	WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)
	Find(ctx context.Context, sel Selector) (Element, error)
	// AttributeAll reads one attribute or property from every element the
	// selector matches, skipping elements where it is absent.
	AttributeAll(ctx context.Context, sel Selector, name string) ([]string, error)
	SendKeys(ctx context.Context, key Key) error
	Reload(ctx context.Context) error
	// ClearBrowsingData drops cookies and history best-effort. It never
	// returns an error for partial failures inside the browser.
	ClearBrowsingData(ctx context.Context) error
	Close() error
}

// Options configures a browser launch.
type Options struct {
	Headless         bool
	Incognito        bool
	AdblockExtension string
	ExtraArgs        []string
}
