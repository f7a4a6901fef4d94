// Package pipeline sequences catalog discovery, detail extraction, merchant
// normalization and seller enrichment into the final result row set for one
// search run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ckaraca/tyharvest/internal/catalog"
	"github.com/ckaraca/tyharvest/internal/fetch"
	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/merchant"
	"github.com/ckaraca/tyharvest/internal/seller"
	"github.com/ckaraca/tyharvest/internal/site"
)

// detailTimeout bounds the lightweight fetch of a product detail page.
const detailTimeout = 20 * time.Second

// SearchRequest is the immutable input of one run.
type SearchRequest struct {
	Term     string `validate:"required"`
	MaxPages int    `validate:"min=1,max=50"`
}

var validate = validator.New()

// Discoverer yields the deduplicated products for a search term.
type Discoverer interface {
	Discover(ctx context.Context, term string, maxPages int) ([]catalog.Product, error)
}

// Fetcher retrieves rendered detail pages. fetch.Channel satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetch.Options) (string, error)
}

// Enricher fills a record's registration gaps. seller.Cache satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, rec *merchant.Record)
}

// Pipeline runs one search end to end. Each run owns its components; no
// state is shared across runs.
type Pipeline struct {
	discoverer Discoverer
	fetcher    Fetcher
	enricher   Enricher
	progress   ProgressFunc
	closer     io.Closer // browser session, released on every exit path
}

// Config assembles a live pipeline.
type Config struct {
	Progress  ProgressFunc
	Headless  bool
	Discovery catalog.Config
	Browser   fetch.BrowserConfig
}

// New wires the production components: one shared browser session, one
// static client carrying the session cookies, the dual-mode channel over
// both, discovery and the per-run seller cache.
func New(cfg Config) *Pipeline {
	browserCfg := cfg.Browser
	if browserCfg == (fetch.BrowserConfig{}) {
		browserCfg = fetch.DefaultBrowserConfig()
		browserCfg.Headless = cfg.Headless
	}
	browser := fetch.NewBrowser(browserCfg)
	static := fetch.NewStaticClient()
	channel := fetch.NewChannel(static, browser)

	discoveryCfg := cfg.Discovery
	if discoveryCfg.CardSelector == "" {
		discoveryCfg = catalog.DefaultConfig()
	}

	p := &Pipeline{
		fetcher:  channel,
		enricher: seller.NewCache(channel),
		progress: cfg.Progress,
		closer:   browser,
	}
	discoveryCfg.PageStarted = func(page, discovered int) {
		p.notify(discovered, 0, StageLoading, fmt.Sprintf("loading result page %d", page))
	}
	p.discoverer = catalog.New(browser, static, discoveryCfg)
	return p
}

// newPipeline builds a pipeline from explicit components; tests use it to
// substitute fakes.
func newPipeline(d Discoverer, f Fetcher, e Enricher, progress ProgressFunc, closer io.Closer) *Pipeline {
	return &Pipeline{discoverer: d, fetcher: f, enricher: e, progress: progress, closer: closer}
}

// Run executes the search and returns every result row in discovery order.
// An empty row set is a valid outcome meaning no products were found.
// Per-product failures degrade to placeholder rows; only discovery-level
// failures fail the run.
func (p *Pipeline) Run(ctx context.Context, req SearchRequest) ([]Row, error) {
	defer p.close()

	if err := validate.Struct(req); err != nil {
		p.notify(0, 0, StageFailed, "invalid search request")
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	p.notify(0, 0, StageInitializing, "preparing search")
	p.notify(0, 0, StageLoading, "loading search results")

	products, err := p.discoverer.Discover(ctx, req.Term, req.MaxPages)
	if err != nil {
		p.notify(0, 0, StageFailed, "search result discovery failed")
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	total := len(products)
	if total == 0 {
		p.notify(0, 0, StageCompleted, "no products found")
		return []Row{}, nil
	}
	p.notify(0, total, StageProcessing, fmt.Sprintf("%d products found, fetching details", total))

	rows := make([]Row, 0, total)
	for i, product := range products {
		p.notify(i, total, StageProcessing, fmt.Sprintf("fetching product %s", product.ID))

		detail := p.productDetail(ctx, product)
		if len(detail.Merchants) == 0 {
			rows = append(rows, placeholderRow(product, detail))
		} else {
			for _, rec := range detail.Merchants {
				p.enricher.Enrich(ctx, &rec)
				rows = append(rows, buildRow(product, detail, rec))
			}
		}

		p.notify(i+1, total, StageProcessing, fmt.Sprintf("%d/%d products processed", i+1, total))
	}

	p.notify(total, total, StageCompleted, "search completed")
	return rows, nil
}

// productDetail fetches and parses one detail page. Any failure yields the
// zero Detail; the product degrades to a placeholder row instead of failing
// the run.
func (p *Pipeline) productDetail(ctx context.Context, product catalog.Product) Detail {
	html, err := p.fetcher.Fetch(ctx, product.URL, fetch.Options{
		Timeout: detailTimeout,
		Marker:  site.DetailPropsKey,
	})
	if err != nil {
		logger.Debug("detail fetch failed", "product_id", product.ID, "error", err)
		return Detail{}
	}
	return parseDetail(html)
}

// notify delivers a progress event, swallowing anything the sink throws.
func (p *Pipeline) notify(current, total int, stage Stage, message string) {
	if p.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("progress sink panicked", "panic", r)
		}
	}()
	p.progress(current, total, stage, message)
}

func (p *Pipeline) close() {
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			logger.Warn("failed to release browser session", "error", err)
		}
	}
}
