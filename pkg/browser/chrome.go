package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"socialscraper/pkg/auth"
	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
)

// chromeSession drives a single headless Chrome tab through chromedp
type chromeSession struct {
	ctx         context.Context
	ctxCancel   context.CancelFunc
	allocCancel context.CancelFunc
	settle      time.Duration
	origins     []auth.Origin
	logger      logger.Logger
	closeOnce   sync.Once
}

// Open launches a browser and creates one browsing context, applying
// the authentication state's cookies before any navigation. A nil
// state opens an anonymous session (used by the generic extractor and
// the bootstrap flow).
func Open(cfg *config.BrowserConfig, state *auth.State, log logger.Logger) (Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:         ctx,
		ctxCancel:   ctxCancel,
		allocCancel: allocCancel,
		settle:      cfg.SettleDelay,
		logger:      log,
	}

	// Starts the browser process
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, errs.Newf(errs.ErrorTypeNavigation, "failed to launch browser: %v", err)
	}

	if state != nil {
		if err := s.applyCookies(state.Cookies); err != nil {
			s.Close()
			return nil, err
		}
		s.origins = state.Origins
		log.WithFields(map[string]interface{}{
			"platform": state.Platform,
			"cookies":  len(state.Cookies),
		}).Debug("session state applied")
	}

	return s, nil
}

// applyCookies installs the persisted session cookies into the context
func (s *chromeSession) applyCookies(cookies []auth.Cookie) error {
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				epoch := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&epoch)
			}
			if err := p.Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return errs.Newf(errs.ErrorTypeNavigation, "failed to apply session cookies: %v", err)
	}
	return nil
}

// Navigate loads a URL and waits according to the policy
func (s *chromeSession) Navigate(rawURL string, policy WaitPolicy, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(rawURL)}
	switch policy {
	case WaitNetworkIdle:
		actions = append(actions,
			chromedp.ActionFunc(waitReadyState("complete")),
			chromedp.Sleep(s.settle),
		)
	default:
		actions = append(actions, chromedp.ActionFunc(waitReadyState("interactive")))
	}

	if err := chromedp.Run(ctx, actions...); err != nil {
		return navError(rawURL, err)
	}

	s.restoreLocalStorage(rawURL)
	return nil
}

// waitReadyState polls document.readyState until it reaches at least
// the wanted state. "interactive" corresponds to DOMContentLoaded.
func waitReadyState(want string) func(context.Context) error {
	return func(ctx context.Context) error {
		for {
			var state string
			if err := chromedp.Evaluate("document.readyState", &state).Do(ctx); err != nil {
				return err
			}
			if state == "complete" || state == want {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

// restoreLocalStorage applies persisted localStorage for the current
// origin. localStorage can only be written once a document from the
// origin is loaded, so this runs after navigation; failures are logged
// and ignored.
func (s *chromeSession) restoreLocalStorage(rawURL string) {
	if len(s.origins) == 0 {
		return
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	origin := u.Scheme + "://" + u.Host

	for _, o := range s.origins {
		if o.Origin != origin {
			continue
		}
		for _, entry := range o.LocalStorage {
			script := fmt.Sprintf("window.localStorage.setItem(%q, %q)", entry.Name, entry.Value)
			if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, nil)); err != nil {
				s.logger.WithError(err).Debug("failed to restore localStorage entry")
			}
		}
	}
}

// WaitVisible blocks until the selector matches a visible element
func (s *chromeSession) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return navError(selector, err)
	}
	return nil
}

// Nodes returns element handles for the current matches of selector
func (s *chromeSession) Nodes(selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(s.ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeExtraction, "query %q failed: %v", selector, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromeElement{session: s, node: n})
	}
	return elements, nil
}

// Scroll scrolls the page vertically by deltaY pixels
func (s *chromeSession) Scroll(deltaY int) error {
	script := fmt.Sprintf("window.scrollBy(0, %d)", deltaY)
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, nil)); err != nil {
		return errs.Newf(errs.ErrorTypeNavigation, "scroll failed: %v", err)
	}
	return nil
}

// Click clicks the first visible element matching the selector
func (s *chromeSession) Click(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return navError(selector, err)
	}
	return nil
}

// Text returns the inner text of the first visible match
func (s *chromeSession) Text(selector string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var out string
	if err := chromedp.Run(ctx, chromedp.Text(selector, &out, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return "", navError(selector, err)
	}
	return out, nil
}

// BodyText returns the rendered text of the document body
func (s *chromeSession) BodyText() (string, error) {
	var out string
	err := chromedp.Run(s.ctx,
		chromedp.Evaluate("document.body ? document.body.innerText : ''", &out),
	)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeExtraction, "body text extraction failed: %v", err)
	}
	return out, nil
}

// HTML returns the current page markup
func (s *chromeSession) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errs.Newf(errs.ErrorTypeExtraction, "markup capture failed: %v", err)
	}
	return html, nil
}

// Screenshot captures the viewport to a file
func (s *chromeSession) Screenshot(path string) error {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return errs.Newf(errs.ErrorTypeExtraction, "screenshot failed: %v", err)
	}
	return os.WriteFile(path, buf, 0644)
}

// ElementScreenshot captures the first visible match to a file
func (s *chromeSession) ElementScreenshot(selector, path string) error {
	var buf []byte
	err := chromedp.Run(s.ctx,
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return errs.Newf(errs.ErrorTypeExtraction, "element screenshot failed: %v", err)
	}
	return os.WriteFile(path, buf, 0644)
}

// Close shuts down the tab and the browser. Repeated calls are no-ops.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		if s.ctxCancel != nil {
			s.ctxCancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
	return nil
}

// navError maps a chromedp failure to the typed error taxonomy,
// distinguishing timeouts from other navigation failures.
func navError(target string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Newf(errs.ErrorTypeTimeout, "timed out waiting for %s", target)
	}
	if errors.Is(err, context.Canceled) {
		return errs.Newf(errs.ErrorTypeNavigation, "operation canceled for %s", target)
	}
	return errs.Newf(errs.ErrorTypeNavigation, "browser operation failed for %s: %v", target, err)
}

// chromeElement is a handle to one DOM node
type chromeElement struct {
	session *chromeSession
	node    *cdp.Node
}

// Attr returns an attribute value and whether it is present
func (e *chromeElement) Attr(name string) (string, bool) {
	attrs := e.node.Attributes
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == name {
			return attrs[i+1], true
		}
	}
	return "", false
}

// BoundingBox returns the rendered size of the element, best-effort
func (e *chromeElement) BoundingBox() (float64, float64, bool) {
	var box *dom.BoxModel
	err := chromedp.Run(e.session.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		box, err = dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		return err
	}))
	if err != nil || box == nil {
		return 0, 0, false
	}
	return float64(box.Width), float64(box.Height), true
}

// Click clicks the element
func (e *chromeElement) Click() error {
	if err := chromedp.Run(e.session.ctx, chromedp.MouseClickNode(e.node)); err != nil {
		return errs.Newf(errs.ErrorTypeExtraction, "element click failed: %v", err)
	}
	return nil
}

// Text returns the element's inner text
func (e *chromeElement) Text() (string, error) {
	var out string
	err := chromedp.Run(e.session.ctx,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &out, chromedp.ByNodeID),
	)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeExtraction, "element text failed: %v", err)
	}
	return out, nil
}

// Query returns descendant elements matching the selector
func (e *chromeElement) Query(selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(e.session.ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(e.node)),
	)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeExtraction, "scoped query %q failed: %v", selector, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromeElement{session: e.session, node: n})
	}
	return elements, nil
}

// Screenshot captures the element region to a file
func (e *chromeElement) Screenshot(path string) error {
	var buf []byte
	err := chromedp.Run(e.session.ctx,
		chromedp.Screenshot([]cdp.NodeID{e.node.NodeID}, &buf, chromedp.ByNodeID),
	)
	if err != nil {
		return errs.Newf(errs.ErrorTypeExtraction, "element screenshot failed: %v", err)
	}
	return os.WriteFile(path, buf, 0644)
}
