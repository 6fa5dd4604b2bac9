package scraper

import (
	"time"

	"socialscraper/pkg/storage"
)

// Run holds the mutable state for one scrape invocation: the output
// workspace, the media dedup set, and the filename counter. Every
// extraction step receives the run explicitly; there is no ambient
// package state, so concurrent runs with separate output directories
// do not interfere. All dedup reads and inserts happen on the single
// task driving the run, so no locking is needed.
type Run struct {
	Workspace *storage.Workspace
	Fetcher   MediaFetcher
	StartedAt time.Time

	timestamp string
	seen      map[string]struct{}
	counter   int
}

func newRun(ws *storage.Workspace, fetcher MediaFetcher) *Run {
	now := time.Now()
	return &Run{
		Workspace: ws,
		Fetcher:   fetcher,
		StartedAt: now,
		timestamp: storage.Timestamp(now),
		seen:      make(map[string]struct{}),
	}
}

// Timestamp returns the run timestamp used in file naming
func (r *Run) Timestamp() string {
	return r.timestamp
}

// Seen reports whether a media URL already has a download attempt in
// flight or completed this run
func (r *Run) Seen(url string) bool {
	_, ok := r.seen[url]
	return ok
}

// MarkSeen records a media URL before its download attempt starts
func (r *Run) MarkSeen(url string) {
	r.seen[url] = struct{}{}
}

// Unmark removes a media URL after a failed download so a later pass
// may retry it
func (r *Run) Unmark(url string) {
	delete(r.seen, url)
}

// NextMediaIndex returns the next value of the run-scoped media counter
func (r *Run) NextMediaIndex() int {
	r.counter++
	return r.counter
}
