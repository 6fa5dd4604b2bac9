package models

import (
	"encoding/json"
	"time"
)

// Platform identifies the source of a scraped item
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformGeneric   Platform = "generic"
)

// MediaRef links a discovered media URL to its local download. A ref
// with an empty LocalPath records a failed download attempt; the item
// is still emitted.
type MediaRef struct {
	OriginalURL string `json:"original_url"`
	LocalPath   string `json:"local_path,omitempty"`
	Filename    string `json:"filename"`
}

// Downloaded reports whether the media was fetched to disk
func (m MediaRef) Downloaded() bool {
	return m.LocalPath != ""
}

// ScrapedItem is one normalized output record representing a single
// post, tweet, or page. Media ordering reflects on-page discovery order.
type ScrapedItem struct {
	URL            string     `json:"url"`
	Author         string     `json:"author"`
	Content        string     `json:"content"`
	Media          []MediaRef `json:"media"`
	Platform       Platform   `json:"platform"`
	CapturedAt     time.Time  `json:"captured_at"`
	ScreenshotPath string     `json:"screenshot_path,omitempty"`
}

// RunError is the single-element error payload returned for run-level
// failures. Callers always receive valid JSON.
type RunError struct {
	Error string `json:"error"`
}

// DiagnosticSnapshot captures best-effort page state alongside a fatal
// error. Either field may be absent when capture itself failed.
type DiagnosticSnapshot struct {
	HTMLPath       string `json:"html_path,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	Reason         string `json:"reason"`
}

// EncodeItems encodes an ordered item sequence as a JSON array. A nil
// slice encodes as an empty array, never null.
func EncodeItems(items []ScrapedItem) ([]byte, error) {
	if items == nil {
		items = []ScrapedItem{}
	}
	return json.MarshalIndent(items, "", "  ")
}

// EncodeError encodes a run-level failure as a single-element array
func EncodeError(err error) []byte {
	payload := []RunError{{Error: err.Error()}}
	data, marshalErr := json.MarshalIndent(payload, "", "  ")
	if marshalErr != nil {
		// RunError contains a single string field; this cannot fail
		// with real input, but keep the output contract regardless.
		return []byte(`[{"error":"failed to encode error"}]`)
	}
	return data
}
