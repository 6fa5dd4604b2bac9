package scraper

import (
	"context"
	"errors"
	"net/url"
	"time"

	"socialscraper/internal/downloader"
	"socialscraper/pkg/auth"
	"socialscraper/pkg/browser"
	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
	"socialscraper/pkg/ratelimit"
	"socialscraper/pkg/storage"
)

// SessionOpener opens a browser session with optional auth state.
// Swapped for a fake in tests.
type SessionOpener func(cfg *config.BrowserConfig, state *auth.State, log logger.Logger) (browser.Session, error)

// MediaFetcher downloads a single media URL into the run workspace
type MediaFetcher interface {
	Download(ctx context.Context, rawURL, baseName string) (models.MediaRef, error)
}

// Scraper orchestrates platform extraction runs. One invocation drives
// one browser session; results are returned as a JSON array, or a
// single-element error array for run-level failures.
type Scraper struct {
	config      *config.Config
	authStore   auth.Store
	openSession SessionOpener
	newFetcher  func(ws *storage.Workspace) MediaFetcher
	logger      logger.Logger
}

// New creates a Scraper from configuration
func New(cfg *config.Config) (*Scraper, error) {
	store, err := auth.NewStore(cfg.Auth.StateDir, cfg.Auth.Encrypt)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger()
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)

	return &Scraper{
		config:      cfg,
		authStore:   store,
		openSession: browser.Open,
		newFetcher: func(ws *storage.Workspace) MediaFetcher {
			return downloader.New(&cfg.Download, ws, limiter, log)
		},
		logger: log,
	}, nil
}

// newRunContext builds the workspace and per-run state for one invocation
func (s *Scraper) newRunContext() (*Run, error) {
	ws, err := storage.NewWorkspace(
		s.config.ScreenshotPath(),
		s.config.MediaPath(),
		s.config.DebugPath(),
	)
	if err != nil {
		return nil, err
	}
	return newRun(ws, s.newFetcher(ws)), nil
}

// encodeResult turns a run outcome into the JSON contract: an ordered
// item array on success, a single-element error array otherwise.
func encodeResult(items []models.ScrapedItem, err error) []byte {
	if err != nil {
		return models.EncodeError(err)
	}
	data, encErr := models.EncodeItems(items)
	if encErr != nil {
		return models.EncodeError(encErr)
	}
	return data
}

// fatalItemErr reports whether a per-item failure indicates the whole
// session is unusable (navigation and timeout classes) rather than a
// one-off extraction problem. Fatal failures abort the run; everything
// else is absorbed by skipping the item.
func fatalItemErr(err error) bool {
	var typed *errs.Error
	return errors.As(err, &typed) && errs.IsFatal(typed.Type)
}

// resolveURL resolves a possibly relative href against a base URL
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
