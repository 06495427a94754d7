package autofill

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type NewChromeOptions struct {
	Headless    bool
	Timeout     time.Duration
	UserDataDir string // defaults to ./chromeUserData
	ExecPath    string
	Flags       []chromedp.ExecAllocatorOption
}

// NewChromeOpt starts a browser and returns the context of its first tab.
func (session *Session) NewChromeOpt(options NewChromeOptions) (context.Context, context.CancelFunc, error) {
	userDataDir := options.UserDataDir
	if userDataDir == "" {
		userDataDir = "./chromeUserData"
	}
	chromeUserDataDir, err := filepath.Abs(userDataDir)
	if err != nil {
		return nil, func() {}, err
	}

	allocOptions := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOptions = append(allocOptions, chromedp.UserDataDir(chromeUserDataDir))
	if !options.Headless {
		allocOptions = append(allocOptions, chromedp.Flag("headless", false))
	} else {
		allocOptions = append(allocOptions, chromedp.DisableGPU)
	}
	if options.ExecPath != "" {
		allocOptions = append(allocOptions, chromedp.ExecPath(options.ExecPath))
	}
	allocOptions = append(allocOptions, options.Flags...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOptions...)

	ctxt, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(session.Printf))
	if options.Timeout != 0 {
		var timeoutCancel context.CancelFunc
		ctxt, timeoutCancel = context.WithTimeout(ctxt, options.Timeout)
		tabCancel := cancel
		cancel = func() {
			timeoutCancel()
			tabCancel()
		}
	}
	cancelFunc := func() {
		cancel()
		allocCancel()
	}

	// start the browser now so a missing binary is reported here
	if err := chromedp.Run(ctxt); err != nil {
		return ctxt, cancelFunc, err
	}
	return ctxt, cancelFunc, nil
}

// ImportCookies copies the jar's cookies for each URL into the browser.
func (session *Session) ImportCookies(ctxt context.Context, urls ...string) error {
	var params []*network.CookieParam
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		for _, c := range session.Cookies(u) {
			params = append(params, &network.CookieParam{
				Name:   c.Name,
				Value:  c.Value,
				URL:    u.Scheme + "://" + u.Host + "/",
				Secure: u.Scheme == "https",
			})
		}
	}
	if len(params) == 0 {
		return nil
	}
	session.Printf("importing %d cookies", len(params))
	return chromedp.Run(ctxt, network.SetCookies(params))
}

// ExportCookies copies the browser's cookies for each URL into the jar.
func (session *Session) ExportCookies(ctxt context.Context, urls ...string) error {
	var cookies []*network.Cookie
	err := chromedp.Run(ctxt, chromedp.ActionFunc(func(ctxt context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithUrls(urls).Do(ctxt)
		return err
	}))
	if err != nil {
		return err
	}

	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		session.SetCookies(u, jarCookies(u, cookies))
	}
	return nil
}

// jarCookies converts the browser cookies that apply to u into jar cookies.
func jarCookies(u *url.URL, cookies []*network.Cookie) []*http.Cookie {
	var result []*http.Cookie
	for _, c := range cookies {
		if !domainMatches(u.Hostname(), c.Domain) {
			continue
		}
		jarCookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		// host-only cookies come back without the leading dot
		if strings.HasPrefix(c.Domain, ".") {
			jarCookie.Domain = c.Domain
		}
		if !c.Session {
			jarCookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		result = append(result, jarCookie)
	}
	return result
}

func domainMatches(host, domain string) bool {
	domain = strings.TrimPrefix(domain, ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// OpenProvider navigates the tab to the provider's page and waits for its body.
func (session *Session) OpenProvider(ctxt context.Context, profile ProviderProfile) (*ChromeDocument, error) {
	session.Printf("opening %v: %v", profile.Name, profile.URL)
	err := chromedp.Run(ctxt,
		page.BringToFront(),
		chromedp.Navigate(profile.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", profile.URL, err)
	}
	return NewChromeDocument(ctxt), nil
}

// CurrentURL returns the location of the tab.
func CurrentURL(ctxt context.Context) (string, error) {
	var location string
	err := chromedp.Run(ctxt, chromedp.Location(&location))
	return location, err
}

// CheckOrigin fails when the tab is not on one of the provider's origins.
func CheckOrigin(ctxt context.Context, profile ProviderProfile) error {
	location, err := CurrentURL(ctxt)
	if err != nil {
		return err
	}
	if !profile.MatchesURL(location) {
		return OriginMismatchError{Provider: profile.Provider, URL: location}
	}
	return nil
}

// SavePageSnapshot writes the tab's current markup into the session's
// snapshot directory.
func (session *Session) SavePageSnapshot(doc *ChromeDocument, profile ProviderProfile, outcome Outcome) (string, error) {
	markup, err := doc.HTML()
	if err != nil {
		return "", err
	}
	signals, err := doc.Signals()
	if err != nil {
		return "", err
	}
	var title string
	_ = chromedp.Run(doc.ctx, chromedp.Title(&title))
	return SaveSnapshot(session.SnapshotDirectory(), markup, SnapshotMetadata{
		URL:      signals.URL,
		Title:    title,
		Provider: profile.Provider,
		Outcome:  outcome,
		SavedAt:  time.Now(),
	})
}
