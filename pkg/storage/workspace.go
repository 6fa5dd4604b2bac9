package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Workspace manages the on-disk layout for one scrape run: a screenshot
// directory, a media directory, and a debug directory for markup dumps.
type Workspace struct {
	screenshotDir string
	mediaDir      string
	debugDir      string
}

// NewWorkspace creates the output directories if they do not exist
func NewWorkspace(screenshotDir, mediaDir, debugDir string) (*Workspace, error) {
	for _, dir := range []string{screenshotDir, mediaDir, debugDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return &Workspace{
		screenshotDir: screenshotDir,
		mediaDir:      mediaDir,
		debugDir:      debugDir,
	}, nil
}

// ScreenshotDir returns the screenshot directory path
func (w *Workspace) ScreenshotDir() string { return w.screenshotDir }

// MediaDir returns the media directory path
func (w *Workspace) MediaDir() string { return w.mediaDir }

// DebugDir returns the debug directory path
func (w *Workspace) DebugDir() string { return w.debugDir }

// ScreenshotPath returns the full path for a screenshot filename
func (w *Workspace) ScreenshotPath(filename string) string {
	return filepath.Join(w.screenshotDir, filename)
}

// SaveMedia streams media content to the media directory. The write
// goes through a temporary file and an atomic rename, so a retried
// download simply overwrites the previous attempt.
func (w *Workspace) SaveMedia(r io.Reader, filename string) (string, error) {
	target := filepath.Join(w.mediaDir, filename)

	tmp := target + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write media data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return target, nil
}

// SaveDebugHTML writes a page markup dump to the debug directory
func (w *Workspace) SaveDebugHTML(filename, html string) (string, error) {
	target := filepath.Join(w.debugDir, filename)
	if err := os.WriteFile(target, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write debug HTML: %w", err)
	}
	return target, nil
}

// Sanitize strips every non-alphanumeric character from a string, for
// embedding queries and handles in filenames.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanQuery produces a readable filename fragment from a search query:
// sigils are dropped and spaces become underscores.
func CleanQuery(q string) string {
	q = strings.NewReplacer("#", "", "@", "", " ", "_").Replace(q)
	var b strings.Builder
	for _, r := range q {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Timestamp formats a run timestamp for file naming
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
