package browser

import "time"

// WaitPolicy selects how long a navigation waits before returning.
// Callers choose per navigation based on how dynamic the target is.
type WaitPolicy int

const (
	// WaitDOMReady returns once the DOM has been parsed
	WaitDOMReady WaitPolicy = iota
	// WaitNetworkIdle waits for the load event plus a settle delay
	WaitNetworkIdle
)

// Session is one logical browsing context for a scrape run. All
// operations run against a single tab; the controller never issues two
// browser operations concurrently on the same session.
type Session interface {
	// Navigate loads a URL under the given wait policy. Timeouts are
	// surfaced as a typed timeout error, other failures as navigation
	// errors.
	Navigate(url string, policy WaitPolicy, timeout time.Duration) error

	// WaitVisible blocks until the selector matches a visible element
	WaitVisible(selector string, timeout time.Duration) error

	// Nodes returns the elements currently matching the selector. The
	// query re-evaluates the live DOM on every call; it is not a
	// snapshot.
	Nodes(selector string) ([]Element, error)

	// Scroll scrolls the page vertically by deltaY pixels
	Scroll(deltaY int) error

	// Click clicks the first visible element matching the selector
	Click(selector string, timeout time.Duration) error

	// Text returns the inner text of the first visible match
	Text(selector string, timeout time.Duration) (string, error)

	// BodyText returns the rendered text of the whole document body
	BodyText() (string, error)

	// HTML returns the current page markup
	HTML() (string, error)

	// Screenshot captures the viewport to a file
	Screenshot(path string) error

	// ElementScreenshot captures the first visible match to a file
	ElementScreenshot(selector, path string) error

	// Close shuts down the browsing context and the browser. It is
	// idempotent and safe to call after a prior failure.
	Close() error
}

// Element is a handle to a DOM node returned by Session.Nodes
type Element interface {
	// Attr returns an attribute value and whether it is present
	Attr(name string) (string, bool)

	// BoundingBox returns the rendered size of the element. ok is
	// false when the box cannot be obtained (detached or hidden
	// nodes); callers fall back to other heuristics.
	BoundingBox() (width, height float64, ok bool)

	// Click clicks the element
	Click() error

	// Text returns the element's inner text
	Text() (string, error)

	// Query returns descendant elements matching the selector
	Query(selector string) ([]Element, error)

	// Screenshot captures the element region to a file
	Screenshot(path string) error
}
