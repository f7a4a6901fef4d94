package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/site"
)

// BrowserConfig holds browser session settings.
type BrowserConfig struct {
	UserAgent   string
	NavTimeout  time.Duration // bound on navigation + wait-for-selector
	SettleDelay time.Duration // fixed pause after load for async scripts
	Headless    bool
}

// DefaultBrowserConfig returns the settings used for live runs.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		UserAgent:   site.UserAgent,
		NavTimeout:  10 * time.Second,
		SettleDelay: time.Second,
		Headless:    true,
	}
}

// Browser is a lazily started chromedp session. One session (a single tab)
// is shared across all renders of a run and torn down exactly once; Close is
// safe on every exit path, started or not.
type Browser struct {
	config BrowserConfig

	mu          sync.Mutex
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	started     bool

	closeOnce sync.Once
}

// NewBrowser prepares a browser session without spawning a process; the
// first navigation starts it.
func NewBrowser(cfg BrowserConfig) *Browser {
	if cfg.UserAgent == "" {
		cfg.UserAgent = site.UserAgent
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = DefaultBrowserConfig().NavTimeout
	}
	return &Browser{config: cfg}
}

// start spawns the browser process. Callers hold b.mu.
func (b *Browser) start() error {
	if b.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(b.config.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	b.allocCtx, b.cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	b.tabCtx, b.cancelTab = chromedp.NewContext(b.allocCtx)

	// Run with no actions forces the process to spawn now, so a broken
	// chrome install fails here instead of mid-run.
	if err := chromedp.Run(b.tabCtx); err != nil {
		b.cancelTab()
		b.cancelAlloc()
		b.allocCtx, b.tabCtx = nil, nil
		return fmt.Errorf("failed to start browser: %w", err)
	}

	b.started = true
	logger.Debug("browser session started", "user_agent", b.config.UserAgent)
	return nil
}

// run executes actions in the shared tab under a bounded timeout. The
// timeout cancels the action batch, not the tab.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	b.mu.Lock()
	if err := b.start(); err != nil {
		b.mu.Unlock()
		return err
	}
	tab := b.tabCtx
	b.mu.Unlock()

	runCtx := tab
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(tab, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads a URL and waits until the given selector is present.
func (b *Browser) Navigate(ctx context.Context, targetURL, waitSelector string) error {
	logger.Debug("browser navigating", "url", targetURL, "wait", waitSelector)
	actions := []chromedp.Action{chromedp.Navigate(targetURL), chromedp.WaitReady(waitSelector)}
	if b.config.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(b.config.SettleDelay))
	}
	if err := b.run(ctx, b.config.NavTimeout+b.config.SettleDelay, actions...); err != nil {
		return fmt.Errorf("browser navigation failed: %w", err)
	}
	return nil
}

// Render navigates to a URL, waits for the document body, allows the settle
// delay and returns the fully rendered markup. This is the fallback path of
// the fetch channel.
func (b *Browser) Render(ctx context.Context, targetURL string) (string, error) {
	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
	}
	if b.config.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(b.config.SettleDelay))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := b.run(ctx, b.config.NavTimeout+b.config.SettleDelay, actions...); err != nil {
		return "", fmt.Errorf("browser render failed: %w", err)
	}
	logger.Debug("browser render complete", "url", targetURL, "html_size", len(html))
	return html, nil
}

// HTML captures the current markup of the shared tab.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, b.config.NavTimeout, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to capture page source: %w", err)
	}
	return html, nil
}

// Count returns how many elements currently match the selector.
func (b *Browser) Count(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := b.run(ctx, b.config.NavTimeout, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("failed to count %q: %w", selector, err)
	}
	return n, nil
}

// ScrollToBottom scrolls the tab to the document bottom.
func (b *Browser) ScrollToBottom(ctx context.Context) error {
	return b.run(ctx, b.config.NavTimeout,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// ClickVisible clicks the first element matching the selector if it exists
// and is visible. Reports whether a click happened.
func (b *Browser) ClickVisible(ctx context.Context, selector string) (bool, error) {
	var clicked bool
	script := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (el && el.offsetParent !== null) { el.click(); return true; } return false; })()`,
		selector)
	if err := b.run(ctx, b.config.NavTimeout, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return clicked, nil
}

// Cookies exports the session's cookies for reuse by the static client.
func (b *Browser) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	action := chromedp.ActionFunc(func(ctx context.Context) error {
		all, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range all {
			cookies = append(cookies, &http.Cookie{
				Name:   c.Name,
				Value:  c.Value,
				Domain: c.Domain,
				Path:   c.Path,
			})
		}
		return nil
	})
	if err := b.run(ctx, b.config.NavTimeout, action); err != nil {
		return nil, fmt.Errorf("failed to read session cookies: %w", err)
	}
	return cookies, nil
}

// Close tears down the browser process. Safe to call more than once and on
// a session that never started.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.cancelTab != nil {
			b.cancelTab()
		}
		if b.cancelAlloc != nil {
			b.cancelAlloc()
		}
		if b.started {
			logger.Debug("browser session closed")
		}
		b.started = false
	})
	return nil
}
