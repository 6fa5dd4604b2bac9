package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialscraper/pkg/browser"
	"socialscraper/pkg/models"
	"socialscraper/pkg/storage"
)

const pageNoText = "No text content found."

// ScrapePage loads an arbitrary URL without authentication and captures
// its rendered text plus a screenshot, returning the JSON result
// payload. It always produces exactly one record or one error.
func (s *Scraper) ScrapePage(ctx context.Context, target string) []byte {
	item, err := s.scrapePage(ctx, target)
	if err != nil {
		return encodeResult(nil, err)
	}
	return encodeResult([]models.ScrapedItem{item}, nil)
}

func (s *Scraper) scrapePage(ctx context.Context, target string) (models.ScrapedItem, error) {
	log := s.logger.WithField("url", target)
	log.Info("scraping page")

	run, err := s.newRunContext()
	if err != nil {
		return models.ScrapedItem{}, err
	}
	diag := &recorder{run: run, logger: s.logger}

	// Anonymous session: generic pages get no stored auth state
	session, err := s.openSession(&s.config.Browser, nil, s.logger)
	if err != nil {
		return models.ScrapedItem{}, err
	}
	defer session.Close()

	if err := session.Navigate(target, browser.WaitNetworkIdle, s.config.Page.NavigationTimeout); err != nil {
		diag.capture(session, string(models.PlatformGeneric), err.Error())
		return models.ScrapedItem{}, err
	}

	safeURL := storage.Sanitize(target)
	if len(safeURL) > 50 {
		safeURL = safeURL[:50]
	}
	screenshotPath := run.Workspace.ScreenshotPath(fmt.Sprintf("page_scrape_%s_%s.png", run.Timestamp(), safeURL))
	if err := session.Screenshot(screenshotPath); err != nil {
		log.WithError(err).Debug("page screenshot failed")
		screenshotPath = ""
	}

	content := pageNoText
	if text, err := session.BodyText(); err == nil && strings.TrimSpace(text) != "" {
		content = strings.TrimSpace(text)
	}

	return models.ScrapedItem{
		URL:            target,
		Content:        content,
		Platform:       models.PlatformGeneric,
		CapturedAt:     time.Now().UTC(),
		ScreenshotPath: screenshotPath,
	}, nil
}
