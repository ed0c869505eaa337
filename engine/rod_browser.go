package engine

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/models"
	"github.com/ysmood/gson"
)

// rodBrowser is one Chrome process driven over CDP.
type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      config.BrowserConfig
	once     sync.Once
	closeErr error
}

// NewRodLauncher returns a LaunchFunc that starts a new Chrome process with
// its own temporary profile on every call. Launch and connect are bound to
// ctx, so the render timeout also covers a hung Chrome start.
func NewRodLauncher(cfg config.BrowserConfig, proxy string) LaunchFunc {
	return func(ctx context.Context) (Browser, error) {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox).
			Leakless(true)

		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}
		if proxy != "" {
			l = l.Proxy(proxy)
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			l.Kill()
			l.Cleanup()
			return nil, categorizeError(err, "failed to launch browser", models.ErrCodeBrowserLaunch)
		}

		browser := rod.New().Context(ctx).ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			l.Kill()
			l.Cleanup()
			return nil, categorizeError(err, "failed to connect to browser", models.ErrCodeBrowserLaunch)
		}
		slog.Debug("browser launched", "pid", l.PID())

		return &rodBrowser{launcher: l, browser: browser, cfg: cfg}, nil
	}
}

// Render follows the order CDP requires: stealth script, user agent and
// blocked URLs must be in place before Navigate, and the idle waiter must
// be registered before Navigate or in-flight requests are missed.
func (b *rodBrowser) Render(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	var (
		page *rod.Page
		err  error
	)
	browser := b.browser.Context(ctx)
	if b.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, categorizeError(err, "failed to open page", models.ErrCodeBrowserLaunch)
	}

	p := page.Context(ctx)

	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      req.UserAgent,
		AcceptLanguage: req.AcceptLanguage,
	}); err != nil {
		return nil, categorizeError(err, "failed to set user agent", models.ErrCodeNavigation)
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Accept-Language":           gson.New(req.AcceptLanguage),
			"Upgrade-Insecure-Requests": gson.New("1"),
		},
	}).Call(p); err != nil {
		slog.Debug("setting extra headers failed", "url", req.URL, "error", err)
	}

	if len(b.cfg.BlockedURLs) > 0 {
		if err := (proto.NetworkEnable{}).Call(p); err != nil {
			slog.Debug("enabling network domain failed", "url", req.URL, "error", err)
		}
		if err := (proto.NetworkSetBlockedURLs{Urls: b.cfg.BlockedURLs}).Call(p); err != nil {
			slog.Debug("blocking static assets failed, loading everything", "url", req.URL, "error", err)
		}
	}

	idle := b.cfg.IdleWindow
	if idle <= 0 {
		idle = 500 * time.Millisecond
	}
	waitIdle := p.WaitRequestIdle(idle, nil, nil, nil)

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed", models.ErrCodeNavigation)
	}
	waitIdle()
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "timed out waiting for network idle", models.ErrCodeTimeout)
	}

	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}
	if statusCode >= http.StatusBadRequest {
		return nil, models.NewScrapeError(models.ErrCodeFetch, statusMessage(statusCode), nil)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML", models.ErrCodeNavigation)
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: statusCode,
		FinalURL:   finalURL,
	}, nil
}

// Close shuts the browser down and kills the process. Safe to call twice,
// and still works after the request context has expired.
func (b *rodBrowser) Close() error {
	b.once.Do(func() {
		b.closeErr = b.browser.Context(context.Background()).Close()
		b.launcher.Kill()
		b.launcher.Cleanup()
	})
	return b.closeErr
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
