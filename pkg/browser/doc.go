// Package browser wraps headless Chrome behind a small session
// interface used by all extractors.
//
// A Session owns one browser instance and one logical browsing context
// for the duration of a scrape run. Operations are issued one at a
// time against a single tab; navigation waits are selected per call
// with a WaitPolicy, and timeouts surface as typed timeout errors so
// callers can tell a slow platform page from a hard failure.
//
// The Element type is a live handle: Session.Nodes re-queries the DOM
// on every call rather than snapshotting it, which matters on pages
// that recycle their nodes while scrolling.
//
// Authentication state produced by the interactive bootstrap flow
// (InteractiveLogin) is applied at session open: cookies before the
// first navigation, origin-scoped localStorage after each navigation
// to a matching origin.
package browser
