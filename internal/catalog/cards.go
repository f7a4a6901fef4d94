// Package catalog discovers product listings for a search term: it
// paginates search result pages in a browser session, drives the client-side
// infinite scroll until the result count settles and parses the result cards
// into deduplicated products.
package catalog

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ckaraca/tyharvest/internal/site"
)

// Product is one discovered search result. Never mutated after creation;
// deduplicated by ID across all pages of a run.
type Product struct {
	ID         string
	Name       string
	URL        string
	CategoryID string // boutiqueId query parameter, "" when absent
	ImageURL   string // card thumbnail, "" when absent
}

var (
	productIDRe  = regexp.MustCompile(`p-(\d+)`)
	boutiqueIDRe = regexp.MustCompile(`boutiqueId=(\d+)`)
)

// ParseCards extracts products from the settled search result markup. Cards
// without a parseable product id are skipped, and ids already present in
// seen are dropped; seen is updated with every id this call keeps.
func ParseCards(html string, seen map[string]bool) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var products []Product
	doc.Find("div.p-card-wrppr").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		fullURL := site.AbsoluteURL(href)

		m := productIDRe.FindStringSubmatch(fullURL)
		if m == nil {
			return
		}
		id := m[1]
		if seen[id] {
			return
		}
		seen[id] = true

		name := strings.TrimSpace(card.Find(`span[class*="prdct-desc-cntnr-name"]`).First().Text())
		if name == "" {
			name = strings.TrimSpace(link.Text())
		}

		var image string
		if img := card.Find("img").First(); img.Length() > 0 {
			image, _ = img.Attr("data-src")
			if image == "" {
				image, _ = img.Attr("src")
			}
		}

		var categoryID string
		if bm := boutiqueIDRe.FindStringSubmatch(fullURL); bm != nil {
			categoryID = bm[1]
		}

		products = append(products, Product{
			ID:         id,
			Name:       name,
			URL:        fullURL,
			CategoryID: categoryID,
			ImageURL:   image,
		})
	})

	return products, nil
}
