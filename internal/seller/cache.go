// Package seller resolves merchant registration details (official name,
// city, registered email, tax number) from seller storefront pages, fetching
// each merchant's page at most once per run.
package seller

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ckaraca/tyharvest/internal/fetch"
	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/merchant"
	"github.com/ckaraca/tyharvest/internal/site"
	"github.com/ckaraca/tyharvest/internal/state"
)

// sellerTimeout bounds the lightweight fetch of a storefront page. Seller
// pages are lighter than product pages, so the bound is tighter.
const sellerTimeout = 12 * time.Second

// Fetcher is the page retrieval contract the cache depends on.
// fetch.Channel satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetch.Options) (string, error)
}

// Details are the registration fields a storefront page may carry. An empty
// field after a successful fetch means the page did not contain it.
type Details struct {
	OfficialName    string
	City            string
	RegisteredEmail string
	TaxNumber       string
}

func (d Details) isZero() bool {
	return d == Details{}
}

// Cache fetches and remembers seller details for the duration of one run.
// Failed lookups are cached too, so no merchant id is fetched twice. The
// cache is owned by a single sequential run and is not safe for concurrent
// use.
type Cache struct {
	fetcher Fetcher
	entries map[string]Details
}

// NewCache creates an empty per-run cache over the given fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher, entries: make(map[string]Details)}
}

// Lookup returns the registration details for a merchant, fetching its
// storefront page on first sight of the id. The zero Details signals "no
// enrichment available"; that outcome is cached as well.
func (c *Cache) Lookup(ctx context.Context, merchantID, merchantName, knownLink string) Details {
	if merchantID == "" || merchantID == merchant.Unknown {
		return Details{}
	}
	if details, ok := c.entries[merchantID]; ok {
		return details
	}

	link := ""
	if knownLink != "" && knownLink != merchant.Unknown {
		link = site.AbsoluteURL(knownLink)
	}
	if link == "" {
		link = site.SellerURL(merchantName, merchantID)
	}
	if link == "" {
		c.entries[merchantID] = Details{}
		return Details{}
	}

	html, err := c.fetcher.Fetch(ctx, link, fetch.Options{Timeout: sellerTimeout})
	if err != nil {
		logger.Debug("seller page fetch failed", "merchant_id", merchantID, "error", err)
		c.entries[merchantID] = Details{}
		return Details{}
	}

	details := parseStorefront(html)
	c.entries[merchantID] = details
	return details
}

// parseStorefront pulls registration details out of a storefront page's
// embedded state. Corporate-level fields are preferred over the seller
// object's own; the email exists only at the corporate level.
func parseStorefront(html string) Details {
	props, ok := state.Extract(html, site.SellerPropsKeys...)
	if !ok {
		return Details{}
	}

	obj := props.Get("seller")
	if !obj.Exists() || obj.Type == gjson.Null {
		obj = props.Get("merchant")
	}
	corporate := obj.Get("corporateInfo")

	return Details{
		OfficialName:    coalesce(text(corporate, "officialName"), text(obj, "corporateTitle")),
		City:            coalesce(text(corporate, "cityName"), text(obj, "city")),
		RegisteredEmail: text(corporate, "registeredEmail"),
		TaxNumber:       coalesce(text(corporate, "taxNumber"), text(obj, "taxNumber")),
	}
}

// Enrich fills a record's registration gaps from the cache. Records are
// eligible when any registration field is still the sentinel, or always for
// the Other type (other-merchant entries never carry registration data
// inline). Only fields the cache actually supplied overwrite the record, and
// a successful enrichment re-normalizes the seller link to an absolute URL.
func (c *Cache) Enrich(ctx context.Context, rec *merchant.Record) {
	if !needsEnrichment(rec) {
		return
	}

	details := c.Lookup(ctx, rec.MerchantID, rec.Name, rec.SellerLink)
	if details.isZero() {
		return
	}

	link := ""
	if rec.SellerLink != merchant.Unknown {
		link = site.AbsoluteURL(rec.SellerLink)
	}
	if link == "" {
		link = site.SellerURL(rec.Name, rec.MerchantID)
	}
	if link != "" {
		rec.SellerLink = link
	}

	if details.OfficialName != "" {
		rec.OfficialName = details.OfficialName
	}
	if details.City != "" {
		rec.City = details.City
	}
	if details.RegisteredEmail != "" {
		rec.RegisteredEmail = details.RegisteredEmail
	}
	if details.TaxNumber != "" {
		rec.TaxNumber = details.TaxNumber
	}
}

func needsEnrichment(rec *merchant.Record) bool {
	if rec.Type == merchant.TypeOther {
		return true
	}
	return rec.OfficialName == merchant.Unknown ||
		rec.City == merchant.Unknown ||
		rec.RegisteredEmail == merchant.Unknown ||
		rec.TaxNumber == merchant.Unknown
}

func text(r gjson.Result, path string) string {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
