package pipeline

import (
	"github.com/tidwall/gjson"

	"github.com/ckaraca/tyharvest/internal/merchant"
	"github.com/ckaraca/tyharvest/internal/site"
	"github.com/ckaraca/tyharvest/internal/state"
)

// Detail is what a product's detail page contributes to its rows: the
// general product fields plus the normalized merchant records, primary
// first. Recomputed per product, never cached.
type Detail struct {
	ProductCode       string
	CategoryName      string
	CategoryHierarchy string
	Brand             string
	Images            []string
	Merchants         []merchant.Record
}

// parseDetail extracts a Detail from rendered detail-page markup. A page
// without parseable embedded state yields the zero Detail, which the run
// loop degrades to a placeholder row.
func parseDetail(html string) Detail {
	props, ok := state.Extract(html, site.DetailPropsKey)
	if !ok {
		return Detail{}
	}

	product := props.Get("product")
	return Detail{
		ProductCode:       product.Get("productCode").String(),
		CategoryName:      product.Get("category.name").String(),
		CategoryHierarchy: product.Get("category.hierarchy").String(),
		Brand:             product.Get("brand.name").String(),
		Images:            collectImages(product.Get("images")),
		Merchants:         merchant.FromListing(product.Get("merchantListing")),
	}
}

// collectImages flattens the image payload, which mixes plain URL strings
// with objects carrying the URL under one of several keys.
func collectImages(payload gjson.Result) []string {
	if !payload.IsArray() {
		return nil
	}
	var images []string
	payload.ForEach(func(_, entry gjson.Result) bool {
		switch {
		case entry.Type == gjson.String:
			if entry.String() != "" {
				images = append(images, entry.String())
			}
		case entry.IsObject():
			for _, key := range []string{"url", "imageUrl", "original", "thumbnail"} {
				if v := entry.Get(key); v.Exists() && v.String() != "" {
					images = append(images, v.String())
					break
				}
			}
		}
		return true
	})
	return images
}
