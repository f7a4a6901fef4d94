package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/site"
)

// Session is what discovery needs from the shared browser session.
// fetch.Browser satisfies it.
type Session interface {
	Navigate(ctx context.Context, url, waitSelector string) error
	HTML(ctx context.Context) (string, error)
	Count(ctx context.Context, selector string) (int, error)
	ScrollToBottom(ctx context.Context) error
	ClickVisible(ctx context.Context, selector string) (bool, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

// CookieSink receives the browser session's cookies after the first result
// page so lightweight detail fetches reuse the same session identity.
type CookieSink interface {
	SetCookies(cookies []*http.Cookie)
}

// Config tunes the discovery state machine. The defaults encode the site's
// markup contract and the scroll pacing that reliably exhausts its infinite
// scroll.
type Config struct {
	CardSelector     string
	LoadMoreSelector string
	MaxScrollRounds  int
	StagnationLimit  int
	ScrollPause      time.Duration
	LoadMorePause    time.Duration
	SettleDelay      time.Duration

	// FullPageSize is the site's nominal page size. A page contributing
	// fewer new products than this is taken as the last page. If the site
	// ever changes its page size this silently truncates results.
	FullPageSize int

	// PageStarted, when set, is called before each result page is loaded
	// with the 1-based page index and the count discovered so far.
	PageStarted func(page, discovered int)
}

// DefaultConfig returns the live-site discovery settings.
func DefaultConfig() Config {
	return Config{
		CardSelector:     "div.p-card-wrppr",
		LoadMoreSelector: "div.infinite-scroll button",
		MaxScrollRounds:  40,
		StagnationLimit:  3,
		ScrollPause:      1250 * time.Millisecond,
		LoadMorePause:    time.Second,
		SettleDelay:      time.Second,
		FullPageSize:     24,
	}
}

// Discoverer walks search result pages and collects deduplicated products.
type Discoverer struct {
	session Session
	cookies CookieSink
	config  Config
}

// New creates a Discoverer. cookies may be nil when no cookie hand-off is
// wanted.
func New(session Session, cookies CookieSink, cfg Config) *Discoverer {
	if cfg.CardSelector == "" {
		cfg.CardSelector = DefaultConfig().CardSelector
	}
	if cfg.MaxScrollRounds <= 0 {
		cfg.MaxScrollRounds = DefaultConfig().MaxScrollRounds
	}
	if cfg.StagnationLimit <= 0 {
		cfg.StagnationLimit = DefaultConfig().StagnationLimit
	}
	if cfg.FullPageSize <= 0 {
		cfg.FullPageSize = DefaultConfig().FullPageSize
	}
	return &Discoverer{session: session, cookies: cookies, config: cfg}
}

// Discover paginates search result pages from 1 up to maxPages, stopping
// early when a page contributes no new products or fewer than the nominal
// page size. A failure on the first page is a run failure; on later pages it
// is treated as end of results.
func (d *Discoverer) Discover(ctx context.Context, term string, maxPages int) ([]Product, error) {
	seen := make(map[string]bool)
	var products []Product

	for page := 1; page <= maxPages; page++ {
		if d.config.PageStarted != nil {
			d.config.PageStarted(page, len(products))
		}

		pageURL := site.SearchURL(term, page)
		logger.Debug("discovery loading page", "page", page, "url", pageURL)

		if err := d.session.Navigate(ctx, pageURL, d.config.CardSelector); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to load first result page: %w", err)
			}
			logger.Debug("discovery page did not render, treating as end of results",
				"page", page, "error", err)
			break
		}

		d.stabilize(ctx)
		d.pause(d.config.SettleDelay)

		html, err := d.session.HTML(ctx)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to capture first result page: %w", err)
			}
			logger.Warn("discovery failed to capture page source", "page", page, "error", err)
			break
		}

		pageProducts, err := ParseCards(html, seen)
		if err != nil {
			return nil, fmt.Errorf("failed to parse result cards: %w", err)
		}
		logger.Info("discovery page parsed", "page", page, "new_products", len(pageProducts))

		if len(pageProducts) == 0 {
			break
		}
		products = append(products, pageProducts...)

		if page == 1 {
			d.handOffCookies(ctx)
		}

		if len(pageProducts) < d.config.FullPageSize {
			break
		}
	}

	return products, nil
}

// stabilize runs the infinite-scroll loop: scroll to the bottom, poke the
// "load more" control when visible and poll the card count. The loop ends
// when the count has not grown for StagnationLimit consecutive polls or
// after MaxScrollRounds rounds, whichever comes first.
func (d *Discoverer) stabilize(ctx context.Context) {
	stagnation := 0
	lastCount := 0

	for round := 0; round < d.config.MaxScrollRounds; round++ {
		count, err := d.session.Count(ctx, d.config.CardSelector)
		if err != nil {
			logger.Debug("discovery card count failed", "error", err)
			count = 0
		}
		if count == 0 {
			d.pause(d.config.ScrollPause)
			continue
		}

		if count == lastCount {
			stagnation++
		} else {
			stagnation = 0
			lastCount = count
		}
		if stagnation >= d.config.StagnationLimit {
			logger.Debug("discovery scroll settled", "cards", count, "rounds", round+1)
			return
		}

		if err := d.session.ScrollToBottom(ctx); err != nil {
			logger.Debug("discovery scroll failed", "error", err)
		}
		d.pause(d.config.ScrollPause)

		if d.config.LoadMoreSelector != "" {
			if clicked, err := d.session.ClickVisible(ctx, d.config.LoadMoreSelector); err == nil && clicked {
				d.pause(d.config.LoadMorePause)
			}
		}
	}
}

func (d *Discoverer) handOffCookies(ctx context.Context) {
	if d.cookies == nil {
		return
	}
	cookies, err := d.session.Cookies(ctx)
	if err != nil {
		logger.Debug("discovery cookie capture failed", "error", err)
		return
	}
	d.cookies.SetCookies(cookies)
}

func (d *Discoverer) pause(delay time.Duration) {
	if delay > 0 {
		time.Sleep(delay)
	}
}
