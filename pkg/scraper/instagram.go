package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialscraper/pkg/browser"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
	"socialscraper/pkg/storage"
)

// Instagram page selectors. These track the current markup of the web
// app and are the most likely thing to need updating after a redesign.
const (
	igMainContent   = "main[role='main']"
	igPostLink      = "a[href*='/p/']"
	igDialog        = "div[role='dialog']"
	igDialogCaption = "div[role='dialog'] h1"
	igDialogAuthor  = "div[role='dialog'] header a[role='link']"
	igDialogImage   = "div[role='dialog'] article img[srcset]"
	igDialogVideo   = "div[role='dialog'] article video[poster]"
	igCloseButton   = "svg[aria-label='Close']"

	igNoCaption     = "No caption"
	igUnknownAuthor = "Unknown"
)

// ScrapeInstagram searches a hashtag or profile and extracts posts,
// returning the JSON result payload
func (s *Scraper) ScrapeInstagram(ctx context.Context, query string, maxResults int) []byte {
	if maxResults < 1 {
		maxResults = s.config.Instagram.DefaultMaxResults
	}
	items, err := s.scrapeInstagram(ctx, query, maxResults)
	return encodeResult(items, err)
}

func (s *Scraper) scrapeInstagram(ctx context.Context, query string, maxResults int) ([]models.ScrapedItem, error) {
	platform := string(models.PlatformInstagram)

	// Precondition: no auth state, no browser
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
	log.Info("starting authenticated instagram search")

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

	cfg := s.config.Instagram
	target := instagramTarget(cfg.BaseURL, query)

	if err := session.Navigate(target, browser.WaitDOMReady, cfg.NavigationTimeout); err != nil {
		diag.capture(session, platform, err.Error())
		return nil, err
	}
	if err := session.WaitVisible(igMainContent, cfg.ContentTimeout); err != nil {
		diag.capture(session, platform, err.Error())
		return nil, err
	}
	log.Debug("main content area visible")

	s.dismissLoginPrompt(session)

	// Scroll until enough post links have rendered or the attempt
	// ceiling is reached. Lazy loading means this is a heuristic: the
	// run accepts whatever has rendered by the end.
	links := s.collectPostLinks(session, maxResults, cfg.ScrollAttempts, cfg.ScrollDelta, cfg.ScrollWait)

	// Page markup is dumped for every run, success or failure
	if html, err := session.HTML(); err == nil {
		name := fmt.Sprintf("instagram_%s_%s.html", storage.Sanitize(query), run.Timestamp())
		if path, err := run.Workspace.SaveDebugHTML(name, html); err == nil {
			log.WithField("path", path).Debug("saved debug HTML")
		}
	}

	if len(links) == 0 {
		log.Warn("no post links found")
		return nil, errs.New(errs.ErrorTypeExtraction, "no posts found")
	}
	log.WithField("links", len(links)).Info("post links discovered")

	if len(links) > maxResults {
		links = links[:maxResults]
	}

	var items []models.ScrapedItem
	for i, link := range links {
		item, err := s.extractInstagramPost(ctx, run, session, link)
		switch {
		case err == nil:
			items = append(items, item)
		case fatalItemErr(err):
			// A timed-out or broken page structure means every later
			// post would fail the same way
			diag.capture(session, platform, err.Error())
			return nil, err
		default:
			logger.LogItemSkipped(platform, fmt.Sprintf("post #%d", i+1), err)
		}
		// The dialog has to go away before the next link is clickable
		s.closeDialog(session)
	}

	log.WithField("items", len(items)).Info("instagram scrape complete")
	return items, nil
}

// instagramTarget maps the query sigil to a navigation target: hashtag
// explore page for '#', profile page for '@' or a bare handle
func instagramTarget(baseURL, query string) string {
	if strings.HasPrefix(query, "#") {
		return fmt.Sprintf("%s/explore/tags/%s/", baseURL, strings.TrimPrefix(query, "#"))
	}
	return fmt.Sprintf("%s/%s/", baseURL, strings.TrimPrefix(query, "@"))
}

// dismissLoginPrompt clicks away the "Not now" interstitial when it is
// shown. Its absence is normal.
func (s *Scraper) dismissLoginPrompt(session browser.Session) {
	buttons, err := session.Nodes("button")
	if err != nil {
		return
	}
	for _, b := range buttons {
		text, err := b.Text()
		if err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(text), "Not now") {
			if err := b.Click(); err == nil {
				s.logger.Debug("dismissed login prompt")
				time.Sleep(time.Second)
			}
			return
		}
	}
}

// collectPostLinks scrolls until maxResults links are present or the
// scroll ceiling is reached, then returns the links in page order
func (s *Scraper) collectPostLinks(session browser.Session, maxResults, scrollAttempts, scrollDelta int, scrollWait time.Duration) []browser.Element {
	var links []browser.Element
	for attempt := 0; ; attempt++ {
		current, err := session.Nodes(igPostLink)
		if err == nil {
			links = current
		}
		if len(links) >= maxResults || attempt >= scrollAttempts {
			return links
		}
		s.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"links":   len(links),
		}).Debug("scrolling for more posts")
		if err := session.Scroll(scrollDelta); err != nil {
			return links
		}
		time.Sleep(scrollWait)
	}
}

// extractInstagramPost opens one post dialog and pulls out the caption,
// author, and representative media
func (s *Scraper) extractInstagramPost(ctx context.Context, run *Run, session browser.Session, link browser.Element) (models.ScrapedItem, error) {
	cfg := s.config.Instagram

	href, ok := link.Attr("href")
	if !ok || href == "" {
		return models.ScrapedItem{}, errs.New(errs.ErrorTypeExtraction, "post link has no href")
	}
	postURL := resolveURL(cfg.BaseURL, href)

	if err := link.Click(); err != nil {
		return models.ScrapedItem{}, err
	}
	if err := session.WaitVisible(igDialog, cfg.DialogTimeout); err != nil {
		return models.ScrapedItem{}, err
	}

	caption := igNoCaption
	if text, err := session.Text(igDialogCaption, 7*time.Second); err == nil && strings.TrimSpace(text) != "" {
		caption = strings.TrimSpace(text)
	}

	author := igUnknownAuthor
	if authors, err := session.Nodes(igDialogAuthor); err == nil && len(authors) > 0 {
		if href, ok := authors[0].Attr("href"); ok && href != "" {
			author = strings.Trim(href, "/")
		}
	}

	// An image src is preferred; video posts fall back to the poster frame
	mediaURL := ""
	if images, err := session.Nodes(igDialogImage); err == nil && len(images) > 0 {
		if src, ok := images[0].Attr("src"); ok {
			mediaURL = src
		}
	}
	if mediaURL == "" {
		if videos, err := session.Nodes(igDialogVideo); err == nil && len(videos) > 0 {
			if poster, ok := videos[0].Attr("poster"); ok {
				mediaURL = poster
			}
		}
	}

	postID := postURL
	if idx := strings.LastIndex(strings.Trim(postURL, "/"), "/"); idx >= 0 {
		postID = strings.Trim(postURL, "/")[idx+1:]
	}
	safeAuthor := storage.Sanitize(author)

	screenshotPath := run.Workspace.ScreenshotPath(fmt.Sprintf("ig_%s_%s.png", safeAuthor, postID))
	if err := session.ElementScreenshot(igDialog, screenshotPath); err != nil {
		s.logger.WithError(err).Debug("dialog screenshot failed")
		screenshotPath = ""
	}

	var media []models.MediaRef
	if mediaURL != "" && !run.Seen(mediaURL) {
		run.MarkSeen(mediaURL)
		ref, err := run.Fetcher.Download(ctx, mediaURL, fmt.Sprintf("ig_%s_%s", safeAuthor, postID))
		if err != nil {
			// The ref is kept without a local path; unmarking lets a
			// later encounter of the same URL try again
			run.Unmark(mediaURL)
			logger.LogDownload(string(models.PlatformInstagram), mediaURL, false, err)
		}
		media = append(media, ref)
	}

	return models.ScrapedItem{
		URL:            postURL,
		Author:         author,
		Content:        caption,
		Media:          media,
		Platform:       models.PlatformInstagram,
		CapturedAt:     time.Now().UTC(),
		ScreenshotPath: screenshotPath,
	}, nil
}

// closeDialog dismisses the post dialog, best-effort
func (s *Scraper) closeDialog(session browser.Session) {
	closers, err := session.Nodes(igCloseButton)
	if err != nil || len(closers) == 0 {
		return
	}
	if err := closers[0].Click(); err != nil {
		s.logger.WithError(err).Debug("failed to close dialog")
	}
	time.Sleep(time.Second)
}
