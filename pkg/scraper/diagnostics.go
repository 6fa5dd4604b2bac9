package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"socialscraper/pkg/browser"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
)

// recorder captures page state when a run fails fatally. Capture is
// best-effort: failures here are swallowed so they never mask the
// original error.
type recorder struct {
	run    *Run
	logger logger.Logger
}

// capture saves the current markup and a screenshot, returning a
// snapshot describing what could be collected
func (r *recorder) capture(session browser.Session, platform, reason string) models.DiagnosticSnapshot {
	snap := models.DiagnosticSnapshot{Reason: reason}
	if session == nil {
		return snap
	}

	if html, err := session.HTML(); err == nil {
		name := fmt.Sprintf("error_%s_%s.html", platform, r.run.Timestamp())
		if path, err := r.run.Workspace.SaveDebugHTML(name, html); err == nil {
			snap.HTMLPath = path
		}
		r.logPageSummary(platform, html)
	}

	name := fmt.Sprintf("error_%s_%s.png", platform, r.run.Timestamp())
	path := r.run.Workspace.ScreenshotPath(name)
	if err := session.Screenshot(path); err == nil {
		snap.ScreenshotPath = path
	}

	r.logger.WithFields(map[string]interface{}{
		"platform":   platform,
		"reason":     reason,
		"html":       snap.HTMLPath,
		"screenshot": snap.ScreenshotPath,
	}).Warn("diagnostics captured")
	return snap
}

// logPageSummary pulls the title and meta description out of the
// captured markup so the failure is identifiable from logs alone
func (r *recorder) logPageSummary(platform, html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	r.logger.WithFields(map[string]interface{}{
		"platform":    platform,
		"page_title":  title,
		"description": strings.TrimSpace(desc),
	}).Debug("failed page summary")
}
