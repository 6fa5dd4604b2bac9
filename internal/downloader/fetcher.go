package downloader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
	"socialscraper/pkg/ratelimit"
	"socialscraper/pkg/retry"
	"socialscraper/pkg/storage"
)

// Fetcher downloads media resources discovered during a scrape run.
// Downloads are issued sequentially by the extractors; the fetcher
// itself is safe for concurrent use should a caller fan out.
type Fetcher struct {
	client     *http.Client
	workspace  *storage.Workspace
	limiter    ratelimit.Limiter
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
}

// New creates a media fetcher writing into the workspace media directory
func New(cfg *config.DownloadConfig, ws *storage.Workspace, limiter ratelimit.Limiter, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		workspace:  ws,
		limiter:    limiter,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     log,
	}
}

// InferExtension derives a file extension from URL query parameters or
// path suffix. Recognizes png, webp, and gif; anything else is treated
// as a photographic jpg. Purely advisory.
func InferExtension(rawURL string) string {
	switch {
	case strings.Contains(rawURL, "format=png") || strings.Contains(rawURL, ".png"):
		return "png"
	case strings.Contains(rawURL, "format=webp") || strings.Contains(rawURL, ".webp"):
		return "webp"
	case strings.Contains(rawURL, "format=gif") || strings.Contains(rawURL, ".gif"):
		return "gif"
	default:
		return "jpg"
	}
}

// Download fetches a media URL into the run's media directory. The
// suggested base name gets the inferred extension appended. On failure
// the returned MediaRef carries no local path and the caller is
// responsible for removing the URL from its dedup set so a later pass
// may retry.
func (f *Fetcher) Download(ctx context.Context, rawURL, baseName string) (models.MediaRef, error) {
	filename := fmt.Sprintf("%s.%s", baseName, InferExtension(rawURL))
	ref := models.MediaRef{
		OriginalURL: rawURL,
		Filename:    filename,
	}

	op := func() error {
		if f.limiter != nil {
			f.limiter.Wait()
		}
		return f.fetchOnce(ctx, rawURL, filename, &ref)
	}

	cfg := &retry.Config{
		MaxAttempts: f.maxRetries,
		Backoff:     &retry.ConstantBackoff{Delay: f.retryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      f.logger,
	}

	err := retry.Do(op, cfg)
	logger.LogDownload("media", rawURL, err == nil, err)
	if err != nil {
		return ref, err
	}
	return ref, nil
}

// fetchOnce performs a single streamed GET-to-disk attempt
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, filename string, ref *models.MediaRef) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errs.Newf(errs.ErrorTypeDownload, "invalid media URL %s: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/webp,image/png,image/*,*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errType := errs.ErrorTypeDownload
		if errs.IsRetryableStatusCode(resp.StatusCode) {
			errType = errs.ErrorTypeServerError
		}
		return &errs.Error{
			Type:    errType,
			Message: fmt.Sprintf("unexpected status downloading %s", rawURL),
			Code:    resp.StatusCode,
		}
	}

	path, err := f.workspace.SaveMedia(resp.Body, filename)
	if err != nil {
		return errs.Newf(errs.ErrorTypeDownload, "failed to store %s: %v", filename, err)
	}

	ref.LocalPath = path
	return nil
}
