package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"socialscraper/pkg/browser"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
	"socialscraper/pkg/storage"
)

// X page selectors
const (
	xTweetCard      = `article[data-testid="tweet"]`
	xTweetText      = `div[data-testid="tweetText"]`
	xTweetPermalink = `a[href*="/status/"]`

	xNoText        = "No text content"
	xUnknownAuthor = "Unknown Author"
)

// xStatusPath pulls the author handle out of a tweet permalink
var xStatusPath = regexp.MustCompile(`^/([^/]+)/status/`)

// xAvatarHints matches media URLs that are avatars or banners rather
// than tweet media, used when an element's rendered box is unavailable
var xAvatarHints = []string{"profile_images", "profile_banners", "avatars", "48x48"}

// ScrapeX runs a live search on X and extracts tweets with their
// media, returning the JSON result payload
func (s *Scraper) ScrapeX(ctx context.Context, query string, maxResults int) []byte {
	if maxResults < 1 {
		maxResults = s.config.X.DefaultMaxResults
	}
	items, err := s.scrapeX(ctx, query, maxResults)
	return encodeResult(items, err)
}

func (s *Scraper) scrapeX(ctx context.Context, query string, maxResults int) ([]models.ScrapedItem, error) {
	platform := string(models.PlatformX)

	if !s.authStore.Exists(platform) {
		return nil, errs.Newf(errs.ErrorTypePrecondition,
			"authentication state %q not found; run the auth command first", s.authStore.Path(platform))
	}
	state, err := s.authStore.Load(platform)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypePrecondition, "failed to load authentication state: %v", err)
	}

	log := s.logger.WithFields(map[string]interface{}{
		"platform": platform,
		"query":    query,
	})
	log.Info("starting authenticated x search")

	run, err := s.newRunContext()
	if err != nil {
		return nil, err
	}
	diag := &recorder{run: run, logger: s.logger}

	session, err := s.openSession(&s.config.Browser, state, s.logger)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	cfg := s.config.X
	target := fmt.Sprintf("%s/search?q=%s&src=typed_query", cfg.BaseURL, url.QueryEscape(query))

	if err := session.Navigate(target, browser.WaitDOMReady, cfg.NavigationTimeout); err != nil {
		diag.capture(session, platform, err.Error())
		return nil, err
	}
	if err := session.WaitVisible(xTweetCard, cfg.ContentTimeout); err != nil {
		diag.capture(session, platform, err.Error())
		return nil, err
	}
	log.Debug("tweet cards visible")

	cleanQuery := storage.CleanQuery(query)
	s.saveViewportShot(run, session, fmt.Sprintf("x_search_initial_%s_%s.png", run.Timestamp(), cleanQuery))

	// Scroll until enough cards have rendered or the ceiling is hit
	s.scrollForTweets(run, session, maxResults, cleanQuery)

	// Media is collected in a bulk pass over every rendered image on
	// the page, then joined back to the cards that reference it. The
	// join key is the original media URL.
	mediaByURL := s.collectXMedia(ctx, run, session)

	cards, err := session.Nodes(xTweetCard)
	if err != nil {
		diag.capture(session, platform, err.Error())
		return nil, err
	}
	if len(cards) > maxResults {
		cards = cards[:maxResults]
	}

	var items []models.ScrapedItem
	for i, card := range cards {
		item, err := s.extractTweet(card, cfg.BaseURL, mediaByURL)
		switch {
		case err == nil:
			items = append(items, item)
		case fatalItemErr(err):
			diag.capture(session, platform, err.Error())
			return nil, err
		default:
			logger.LogItemSkipped(platform, fmt.Sprintf("tweet #%d", i+1), err)
		}
	}

	s.saveViewportShot(run, session, fmt.Sprintf("x_search_final_%s_%s.png", run.Timestamp(), cleanQuery))

	log.WithFields(map[string]interface{}{
		"items": len(items),
		"media": len(mediaByURL),
	}).Info("x scrape complete")
	return items, nil
}

// scrollForTweets scrolls until maxResults cards are present or the
// attempt ceiling is reached. A screenshot is taken after the first
// scroll so a diagnosing operator can see what lazy loading produced.
func (s *Scraper) scrollForTweets(run *Run, session browser.Session, maxResults int, cleanQuery string) {
	cfg := s.config.X
	for attempt := 0; attempt < cfg.ScrollAttempts; attempt++ {
		cards, err := session.Nodes(xTweetCard)
		if err == nil && len(cards) >= maxResults {
			return
		}
		if err := session.Scroll(cfg.ScrollDelta); err != nil {
			return
		}
		time.Sleep(cfg.ScrollWait)
		if attempt == 0 {
			s.saveViewportShot(run, session, fmt.Sprintf("x_search_scrolled_%s_%s.png", run.Timestamp(), cleanQuery))
		}
	}
}

// collectXMedia downloads every tweet-media image currently rendered on
// the page and returns the downloaded refs keyed by original URL.
// Failed downloads get exactly one more attempt at the end of the pass.
func (s *Scraper) collectXMedia(ctx context.Context, run *Run, session browser.Session) map[string]models.MediaRef {
	cfg := s.config.X
	media := make(map[string]models.MediaRef)

	images, err := session.Nodes("img")
	if err != nil {
		s.logger.WithError(err).Warn("failed to enumerate page images")
		return media
	}

	var failed []string
	for _, img := range images {
		src, ok := img.Attr("src")
		if !ok || !isXMediaURL(src, cfg.MediaDomains) {
			continue
		}
		if run.Seen(src) {
			continue
		}
		if isXAvatar(img, src, cfg.MinImageSize) {
			continue
		}
		run.MarkSeen(src)
		ref, err := s.downloadXImage(ctx, run, src)
		if err != nil {
			run.Unmark(src)
			failed = append(failed, src)
			continue
		}
		media[src] = ref
	}

	// One retry sweep over the URLs that failed above. A second failure
	// keeps the ref without a local path so the card still records it.
	for _, src := range failed {
		if run.Seen(src) {
			continue
		}
		run.MarkSeen(src)
		ref, err := s.downloadXImage(ctx, run, src)
		if err != nil {
			logger.LogDownload(string(models.PlatformX), src, false, err)
		}
		media[src] = ref
	}
	return media
}

func (s *Scraper) downloadXImage(ctx context.Context, run *Run, src string) (models.MediaRef, error) {
	name := fmt.Sprintf("x_image_%s_%03d", run.Timestamp(), run.NextMediaIndex())
	return run.Fetcher.Download(ctx, src, name)
}

// isXMediaURL reports whether src is hosted on one of the tweet media
// domains
func isXMediaURL(src string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(src, d) {
			return true
		}
	}
	return false
}

// isXAvatar filters out avatars and other chrome imagery. The rendered
// box is the primary signal; when it is unavailable the URL shape
// decides.
func isXAvatar(img browser.Element, src string, minSize int) bool {
	if w, h, ok := img.BoundingBox(); ok {
		return w <= float64(minSize) && h <= float64(minSize)
	}
	for _, hint := range xAvatarHints {
		if strings.Contains(src, hint) {
			return true
		}
	}
	return false
}

// extractTweet pulls the text, author, permalink and media out of one
// tweet card
func (s *Scraper) extractTweet(card browser.Element, baseURL string, mediaByURL map[string]models.MediaRef) (models.ScrapedItem, error) {
	content := xNoText
	if texts, err := card.Query(xTweetText); err == nil && len(texts) > 0 {
		if text, err := texts[0].Text(); err == nil && strings.TrimSpace(text) != "" {
			content = strings.TrimSpace(text)
		}
	}

	tweetURL := ""
	author := xUnknownAuthor
	if links, err := card.Query(xTweetPermalink); err == nil {
		for _, link := range links {
			href, ok := link.Attr("href")
			if !ok {
				continue
			}
			if m := xStatusPath.FindStringSubmatch(href); m != nil {
				tweetURL = resolveURL(baseURL, href)
				author = "@" + m[1]
				break
			}
		}
	}
	if tweetURL == "" {
		return models.ScrapedItem{}, errs.New(errs.ErrorTypeExtraction, "tweet card has no permalink")
	}

	var media []models.MediaRef
	if images, err := card.Query("img"); err == nil {
		for _, img := range images {
			src, ok := img.Attr("src")
			if !ok {
				continue
			}
			if ref, ok := mediaByURL[src]; ok {
				media = append(media, ref)
			}
		}
	}

	return models.ScrapedItem{
		URL:        tweetURL,
		Author:     author,
		Content:    content,
		Media:      media,
		Platform:   models.PlatformX,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// saveViewportShot writes a viewport screenshot, best-effort
func (s *Scraper) saveViewportShot(run *Run, session browser.Session, filename string) {
	path := run.Workspace.ScreenshotPath(filename)
	if err := session.Screenshot(path); err != nil {
		s.logger.WithError(err).Debug("viewport screenshot failed")
		return
	}
	s.logger.WithField("path", path).Debug("saved screenshot")
}
