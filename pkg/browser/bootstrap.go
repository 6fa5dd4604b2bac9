package browser

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	cdpstorage "github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"socialscraper/pkg/auth"
	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
)

// InteractiveLogin opens a visible browser window at the platform's
// login page, blocks on wait while a human completes the login, then
// captures the session state. This step is human-supervised and has no
// timeout by design.
func InteractiveLogin(cfg *config.BrowserConfig, platform, loginURL string, wait func() error, log logger.Logger) (*auth.State, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	// The operator has to see the window
	visible := *cfg
	visible.Headless = false

	session, err := Open(&visible, nil, log)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Navigate(loginURL, WaitDOMReady, 2*time.Minute); err != nil {
		return nil, err
	}

	log.WithField("platform", platform).Info("complete the login in the browser window")
	if err := wait(); err != nil {
		return nil, err
	}

	cs, ok := session.(*chromeSession)
	if !ok {
		return nil, errs.New(errs.ErrorTypeUnknown, "interactive login requires a chrome session")
	}
	return cs.captureState(platform, cfg.UserAgent, loginURL)
}

// captureState reads the cookies and the current origin's localStorage
// out of the live browsing context
func (s *chromeSession) captureState(platform, userAgent, loginURL string) (*auth.State, error) {
	var cookies []*network.Cookie
	var storageJSON string

	err := chromedp.Run(s.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = cdpstorage.GetCookies().Do(ctx)
			return err
		}),
		chromedp.Evaluate("JSON.stringify(Object.entries(window.localStorage))", &storageJSON),
	)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeExtraction, "failed to capture session state: %v", err)
	}

	state := &auth.State{
		Platform:  platform,
		SavedAt:   time.Now().UTC(),
		UserAgent: userAgent,
	}
	for _, c := range cookies {
		state.Cookies = append(state.Cookies, auth.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}

	var entries [][]string
	if err := json.Unmarshal([]byte(storageJSON), &entries); err == nil && len(entries) > 0 {
		origin := loginURL
		if u, err := url.Parse(loginURL); err == nil {
			origin = u.Scheme + "://" + u.Host
		}
		o := auth.Origin{Origin: origin}
		for _, kv := range entries {
			if len(kv) == 2 {
				o.LocalStorage = append(o.LocalStorage, auth.StorageEntry{Name: kv[0], Value: kv[1]})
			}
		}
		state.Origins = append(state.Origins, o)
	}

	return state, nil
}
