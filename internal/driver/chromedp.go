// -----------------------------------------------------------------------
// Chrome Session - chromedp implementation of the browser driver port
// -----------------------------------------------------------------------

package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/interfaces"
)

// Config holds browser session configuration
type Config struct {
	Headless     bool          `json:"headless"`
	DisableGPU   bool          `json:"disable_gpu"`
	NoSandbox    bool          `json:"no_sandbox"`
	UserAgent    string        `json:"user_agent"`
	WindowWidth  int           `json:"window_width"`
	WindowHeight int           `json:"window_height"`
	StepTimeout  time.Duration `json:"step_timeout"`
	WaitTimeout  time.Duration `json:"wait_timeout"`
}

// Session is one isolated chromedp browser context implementing the Driver
// port. Each route run gets its own session so page state never leaks
// between routes.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	cfg     Config
	logger  arbor.ILogger
}

// Factory creates fresh chromedp sessions
type Factory struct {
	cfg    Config
	logger arbor.ILogger
}

// NewFactory creates a session factory with the given browser configuration
func NewFactory(cfg Config, logger arbor.ILogger) interfaces.SessionFactory {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Proba-Runner/1.0"
	}
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = 1920
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = 1080
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 5 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	return &Factory{cfg: cfg, logger: logger}
}

// NewSession starts a fresh browser context and verifies it is responsive
func (f *Factory) NewSession(ctx context.Context) (interfaces.Driver, error) {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", f.cfg.DisableGPU),
		chromedp.Flag("no-sandbox", f.cfg.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(f.cfg.WindowWidth, f.cfg.WindowHeight),
		chromedp.UserAgent(f.cfg.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup probe so a broken Chrome install fails here, not mid-route
	probeCtx, probeCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser session failed startup probe: %w", err)
	}

	f.logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Bool("headless", f.cfg.Headless).
		Msg("Browser session created")

	return &Session{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocatorCancel},
		cfg:     f.cfg,
		logger:  f.logger,
	}, nil
}

// queryOpt picks the chromedp query strategy for a selector. Pattern-generated
// candidates may be XPath expressions; everything else is CSS.
func queryOpt(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "//") || strings.HasPrefix(selector, "(") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// run executes chromedp actions under a deadline and maps context expiry to
// the typed timeout error the engine classifies on.
func (s *Session) run(ctx context.Context, timeout time.Duration, op, selector string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.withParent(ctx), timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Op: op, Selector: selector, Timeout: timeout}
		}
		return fmt.Errorf("%s failed on %q: %w", op, selector, err)
	}
	return nil
}

// withParent ties the session context to the caller's cancellation
func (s *Session) withParent(ctx context.Context) context.Context {
	if ctx == nil || ctx == context.Background() {
		return s.ctx
	}
	// chromedp actions must run against the browser context; caller
	// cancellation is honored through the deadline in run().
	return s.ctx
}

// Navigate loads the URL and waits for the document body to be ready
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.WaitTimeout, "navigate", url,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// CurrentURL returns the active page URL
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.cfg.StepTimeout, "current_url", "", chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Exists returns the number of elements currently matching the selector
func (s *Session) Exists(ctx context.Context, selector string) (int, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, s.cfg.StepTimeout, "locate", selector,
		chromedp.Nodes(selector, &nodes, queryOpt(selector), chromedp.AtLeast(0)),
	)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// jsFindElement locates an element by CSS or XPath inside page JavaScript
const jsFindElement = `function(sel) {
	if (sel.indexOf('//') === 0 || sel.indexOf('(') === 0) {
		var r = document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		return r.singleNodeValue;
	}
	return document.querySelector(sel);
}`

// IsVisible reports whether the first matching element is rendered and has
// a non-empty bounding box
func (s *Session) IsVisible(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`(function() {
		var find = %s;
		var el = find(%q);
		if (!el) { return false; }
		var style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') { return false; }
		var rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	})()`, jsFindElement, selector)

	var visible bool
	if err := s.run(ctx, s.cfg.StepTimeout, "visibility_check", selector, chromedp.Evaluate(script, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

// WaitVisible blocks until the selector is visible or the timeout elapses
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, "wait_visible", selector,
		chromedp.WaitVisible(selector, queryOpt(selector)),
	)
}

// WaitHidden blocks until the selector is hidden or gone, or the timeout elapses
func (s *Session) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, "wait_hidden", selector,
		chromedp.WaitNotVisible(selector, queryOpt(selector)),
	)
}

// Click clicks the first element matching the selector
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.cfg.StepTimeout, "click", selector,
		chromedp.Click(selector, queryOpt(selector)),
	)
}

// Fill clears the field and types the value into it
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx, s.cfg.StepTimeout, "fill", selector,
		chromedp.Clear(selector, queryOpt(selector)),
		chromedp.SendKeys(selector, value, queryOpt(selector)),
	)
}

// Options enumerates the option elements of a <select> target
func (s *Session) Options(ctx context.Context, selector string) ([]interfaces.SelectOption, error) {
	script := fmt.Sprintf(`(function() {
		var find = %s;
		var el = find(%q);
		if (!el || !el.options) { return []; }
		var out = [];
		for (var i = 0; i < el.options.length; i++) {
			out.push({value: el.options[i].value, text: el.options[i].text});
		}
		return out;
	})()`, jsFindElement, selector)

	var options []interfaces.SelectOption
	if err := s.run(ctx, s.cfg.StepTimeout, "options", selector, chromedp.Evaluate(script, &options)); err != nil {
		return nil, err
	}
	return options, nil
}

// SelectOption sets the select's value and fires input/change events so
// framework bindings observe the update
func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(`(function() {
		var find = %s;
		var el = find(%q);
		if (!el) { return false; }
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, jsFindElement, selector, value)

	var ok bool
	if err := s.run(ctx, s.cfg.StepTimeout, "select", selector, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Selector: selector}
	}
	return nil
}

// Scroll scrolls the element into view, or one viewport down when no
// selector is given
func (s *Session) Scroll(ctx context.Context, selector string) error {
	if selector == "" {
		var res interface{}
		return s.run(ctx, s.cfg.StepTimeout, "scroll", "",
			chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, &res),
		)
	}
	return s.run(ctx, s.cfg.StepTimeout, "scroll", selector,
		chromedp.ScrollIntoView(selector, queryOpt(selector)),
	)
}

// keyNames maps step key names to chromedp key runes
var keyNames = map[string]string{
	"enter":     kb.Enter,
	"tab":       kb.Tab,
	"escape":    kb.Escape,
	"backspace": kb.Backspace,
	"delete":    kb.Delete,
	"arrowup":   kb.ArrowUp,
	"arrowdown": kb.ArrowDown,
	"pageup":    kb.PageUp,
	"pagedown":  kb.PageDown,
	"home":      kb.Home,
	"end":       kb.End,
}

// KeyPress sends a key event to the focused element
func (s *Session) KeyPress(ctx context.Context, keys string) error {
	if mapped, ok := keyNames[strings.ToLower(keys)]; ok {
		keys = mapped
	}
	return s.run(ctx, s.cfg.StepTimeout, "keypress", keys, chromedp.KeyEvent(keys))
}

// Text returns the visible text of the first matching element
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := s.run(ctx, s.cfg.StepTimeout, "text", selector,
		chromedp.Text(selector, &text, queryOpt(selector)),
	); err != nil {
		return "", err
	}
	return text, nil
}

// IsChecked reports the checked state of a checkbox or radio element
func (s *Session) IsChecked(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`(function() {
		var find = %s;
		var el = find(%q);
		return !!(el && el.checked);
	})()`, jsFindElement, selector)

	var checked bool
	if err := s.run(ctx, s.cfg.StepTimeout, "checked_state", selector, chromedp.Evaluate(script, &checked)); err != nil {
		return false, err
	}
	return checked, nil
}

// Screenshot captures the current viewport as PNG
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.cfg.WaitTimeout, "screenshot", "", chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// DOMSnapshot captures the full serialized DOM of the current page
func (s *Session) DOMSnapshot(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.cfg.WaitTimeout, "dom_snapshot", "",
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// Close cancels the browser and allocator contexts
func (s *Session) Close() error {
	for _, cancel := range s.cancels {
		if cancel != nil {
			cancel()
		}
	}
	s.logger.Debug().Msg("Browser session closed")
	return nil
}
