// Package site holds the Trendyol URL and markup contract: base URLs, the
// search URL template, the seller storefront template, the embedded-state
// variable names and the browser header set. Nothing in here talks to the
// network; the other packages compose these pieces.
package site

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the catalog origin all relative links resolve against.
	BaseURL = "https://www.trendyol.com"

	// searchPath carries the query term in three independent slots (q, qt,
	// st) plus an options flag, mirroring what the site's own search box
	// submits. The 1-based page index is appended as pi.
	searchPath = "/sr?q=%s&qt=%s&st=%s&os=1"

	// sellerPath is the storefront URL shape for a merchant without an
	// explicit link: a slugified display name plus the numeric merchant id.
	sellerPath = "/magaza/%s-m-%s"
)

// DetailPropsKey is the script-scoped variable the product detail page
// stores its embedded state under.
const DetailPropsKey = "__envoy_flash-sales-banner__PROPS"

// SellerPropsKeys are the known variable names for the seller storefront
// state, in preference order. The site exposes the same payload under
// different feature-flagged keys; the first one that parses wins.
var SellerPropsKeys = []string{
	"__envoy_seller-storefront-web__PROPS",
	"__envoy_seller-storefront__PROPS",
}

// UserAgent is sent on every request, from both fetch channels.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Headers returns the browser-identifying header set for lightweight
// fetches. Returned as a fresh map so callers may add to it.
func Headers() map[string]string {
	return map[string]string{
		"User-Agent":      UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
		"Cache-Control":   "no-cache",
	}
}

// SearchURL builds the search result URL for a term and a 1-based page
// index.
func SearchURL(term string, page int) string {
	q := url.QueryEscape(term)
	return BaseURL + fmt.Sprintf(searchPath, q, q, q) + fmt.Sprintf("&pi=%d", page)
}

// SellerURL synthesizes a storefront URL from a merchant's display name and
// id. Returns "" when either part is missing.
func SellerURL(name, merchantID string) string {
	if name == "" || merchantID == "" {
		return ""
	}
	slug := Slugify(name)
	if slug == "" {
		return ""
	}
	return BaseURL + fmt.Sprintf(sellerPath, slug, merchantID)
}

// AbsoluteURL normalizes a possibly relative link against BaseURL. Returns
// "" when the input is empty or cannot be made absolute.
func AbsoluteURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	if strings.HasPrefix(raw, "/") {
		return BaseURL + raw
	}
	return BaseURL + "/" + strings.TrimLeft(raw, "/")
}
