package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Chrome drives a Chrome instance over the DevTools protocol.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// Launch starts a Chrome instance with the given options and discards any
// extra tabs (extensions tend to open onboarding pages at startup).
func Launch(ctx context.Context, opts Options) (*Chrome, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorFlags(opts)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	c := &Chrome{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}
	if err := chromedp.Run(browserCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	c.closeExtraTabs()
	return c, nil
}

// allocatorFlags builds the Chrome command line for the given options.
func allocatorFlags(opts Options) []chromedp.ExecAllocatorOption {
	flags := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	flags = append(flags,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
	)
	if !opts.Headless {
		flags = append(flags, chromedp.Flag("headless", false))
	}
	if opts.Incognito {
		flags = append(flags, chromedp.Flag("incognito", true))
	}
	if opts.AdblockExtension != "" {
		flags = append(flags,
			chromedp.Flag("load-extension", opts.AdblockExtension),
			chromedp.Flag("disable-extensions", false),
		)
	}
	for _, arg := range opts.ExtraArgs {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			flags = append(flags, chromedp.Flag(name, value))
		} else {
			flags = append(flags, chromedp.Flag(name, true))
		}
	}
	return flags
}

// closeExtraTabs closes every target except the session's own tab.
func (c *Chrome) closeExtraTabs() {
	targets, err := chromedp.Targets(c.ctx)
	if err != nil {
		return
	}
	current := chromedp.FromContext(c.ctx).Target
	for _, info := range targets {
		if info.Type != "page" {
			continue
		}
		if current != nil && info.TargetID == current.TargetID {
			continue
		}
		_ = chromedp.Run(c.ctx, target.CloseTarget(info.TargetID))
	}
}

// runContext derives a chromedp-compatible context that honors the caller's
// deadline.
func (c *Chrome) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(c.ctx, deadline)
	}
	return context.WithCancel(c.ctx)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

func (c *Chrome) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	waitCtx, waitCancel := context.WithTimeout(runCtx, timeout)
	defer waitCancel()
	err := chromedp.Run(waitCtx, chromedp.WaitReady(string(sel), chromedp.BySearch))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("wait for %s: %w", sel, ErrWaitTimeout)
		}
		return nil, fmt.Errorf("wait for %s: %w", sel, err)
	}
	return &chromeElement{chrome: c, xpath: string(sel)}, nil
}

func (c *Chrome) Find(ctx context.Context, sel Selector) (Element, error) {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	script := fmt.Sprintf(`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null`, string(sel))
	var present bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &present)); err != nil {
		return nil, fmt.Errorf("find %s: %w", sel, err)
	}
	if !present {
		return nil, fmt.Errorf("find %s: %w", sel, ErrNotFound)
	}
	return &chromeElement{chrome: c, xpath: string(sel)}, nil
}

func (c *Chrome) AttributeAll(ctx context.Context, sel Selector, name string) ([]string, error) {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	script := fmt.Sprintf(`(function() {
		const out = [];
		const snap = document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (let i = 0; i < snap.snapshotLength; i++) {
			const el = snap.snapshotItem(i);
			let v = el[%q];
			if (v === undefined || v === null) { v = el.getAttribute(%q); }
			if (v !== undefined && v !== null) { out.push(String(v)); }
		}
		return out;
	})()`, string(sel), name, name)
	var values []string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &values)); err != nil {
		return nil, fmt.Errorf("read %s of %s: %w", name, sel, err)
	}
	return values, nil
}

func (c *Chrome) SendKeys(ctx context.Context, key Key) error {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	var action chromedp.Action
	switch key {
	case KeyShiftN:
		action = chromedp.KeyEvent("N")
	case KeyArrowDown:
		action = chromedp.KeyEvent(kb.ArrowDown)
	default:
		return fmt.Errorf("send keys: unknown key %q", key)
	}
	if err := chromedp.Run(runCtx, action); err != nil {
		return fmt.Errorf("send keys %s: %w", key, err)
	}
	return nil
}

func (c *Chrome) Reload(ctx context.Context) error {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// ClearBrowsingData clears cookies and cache. Failures inside the browser
// are swallowed: cleanup must never propagate past this boundary.
func (c *Chrome) ClearBrowsingData(ctx context.Context) error {
	runCtx, cancel := c.runContext(ctx)
	defer cancel()
	_ = chromedp.Run(runCtx,
		network.ClearBrowserCookies(),
		network.ClearBrowserCache(),
	)
	return nil
}

// Close shuts the browser down. Safe to call more than once.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.allocCancel()
	})
	return nil
}

// chromeElement resolves an element by XPath on every operation, which keeps
// it immune to stale references across page mutations.
type chromeElement struct {
	chrome *Chrome
	xpath  string
}

// ErrNotFound reports that a selector resolved to no element.
var ErrNotFound = errors.New("browser: element not found")

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	runCtx, cancel := e.chrome.runContext(ctx)
	defer cancel()
	script := fmt.Sprintf(`(function() {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) { return "!missing-element"; }
		let v = el[%q];
		if (v === undefined || v === null) { v = el.getAttribute(%q); }
		if (v === undefined || v === null) { return "!missing-attribute"; }
		return "=" + String(v);
	})()`, e.xpath, name, name)
	var result string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &result)); err != nil {
		return "", false, fmt.Errorf("read attribute %s: %w", name, err)
	}
	switch result {
	case "!missing-element":
		return "", false, ErrNotFound
	case "!missing-attribute":
		return "", false, nil
	default:
		return strings.TrimPrefix(result, "="), true, nil
	}
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	runCtx, cancel := e.chrome.runContext(ctx)
	defer cancel()
	var text string
	if err := chromedp.Run(runCtx, chromedp.Text(e.xpath, &text, chromedp.BySearch)); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	runCtx, cancel := e.chrome.runContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Click(e.xpath, chromedp.BySearch)); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (e *chromeElement) Find(ctx context.Context, sel Selector) (Element, error) {
	return &chromeElement{chrome: e.chrome, xpath: JoinXPath(e.xpath, sel)}, nil
}

// JoinXPath scopes a relative selector under a parent XPath.
func JoinXPath(parent string, sel Selector) string {
	child := string(sel)
	child = strings.TrimPrefix(child, ".")
	return parent + child
}
