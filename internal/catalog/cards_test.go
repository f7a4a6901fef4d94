package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ckaraca/tyharvest/internal/site"
)

func card(id, name, img string) string {
	return fmt.Sprintf(`<div class="p-card-wrppr">
		<a href="/marka/urun-p-%s?boutiqueId=61%s&merchantId=1">
			<span class="prdct-desc-cntnr-name hasRatings">%s</span>
			<img data-src="%s" src="placeholder.gif"/>
		</a>
	</div>`, id, id, name, img)
}

func resultPage(cards ...string) string {
	return `<html><body><div class="srch-rslt-cntnt">` + strings.Join(cards, "\n") + `</div></body></html>`
}

func TestParseCards(t *testing.T) {
	html := resultPage(card("100", "Cam Bardak 6lı", "https://cdn.example.com/100.jpg"))

	seen := make(map[string]bool)
	products, err := ParseCards(html, seen)
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}

	p := products[0]
	if p.ID != "100" {
		t.Errorf("ID = %q, want %q", p.ID, "100")
	}
	if p.Name != "Cam Bardak 6lı" {
		t.Errorf("Name = %q", p.Name)
	}
	if !strings.HasPrefix(p.URL, site.BaseURL+"/marka/urun-p-100") {
		t.Errorf("URL not absolutized: %q", p.URL)
	}
	if p.CategoryID != "61100" {
		t.Errorf("CategoryID = %q, want %q", p.CategoryID, "61100")
	}
	if p.ImageURL != "https://cdn.example.com/100.jpg" {
		t.Errorf("ImageURL = %q, want the data-src value", p.ImageURL)
	}
}

func TestParseCards_DeduplicatesAcrossPages(t *testing.T) {
	seen := make(map[string]bool)

	first, err := ParseCards(resultPage(card("1", "A", ""), card("2", "B", "")), seen)
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}
	second, err := ParseCards(resultPage(card("2", "B", ""), card("3", "C", "")), seen)
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}

	if len(first) != 2 || len(second) != 1 {
		t.Fatalf("expected 2 then 1 new products, got %d then %d", len(first), len(second))
	}
	if second[0].ID != "3" {
		t.Errorf("expected only the unseen product, got %q", second[0].ID)
	}
}

func TestParseCards_SkipsUnparseableCards(t *testing.T) {
	html := resultPage(
		`<div class="p-card-wrppr"><a href="/kampanya/firsatlar"><span>not a product</span></a></div>`,
		`<div class="p-card-wrppr"><span>no link at all</span></div>`,
		card("7", "Valid", ""),
	)

	products, err := ParseCards(html, make(map[string]bool))
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}
	if len(products) != 1 || products[0].ID != "7" {
		t.Fatalf("expected only the parseable card, got %+v", products)
	}
}

func TestParseCards_FallsBackToLinkTextAndSrc(t *testing.T) {
	html := resultPage(`<div class="p-card-wrppr">
		<a href="/marka/urun-p-42"> Fallback Name </a>
		<img src="https://cdn.example.com/42.jpg"/>
	</div>`)

	products, err := ParseCards(html, make(map[string]bool))
	if err != nil {
		t.Fatalf("ParseCards() error = %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Name != "Fallback Name" {
		t.Errorf("Name = %q, want link text fallback", products[0].Name)
	}
	if products[0].ImageURL != "https://cdn.example.com/42.jpg" {
		t.Errorf("ImageURL = %q, want src fallback", products[0].ImageURL)
	}
	if products[0].CategoryID != "" {
		t.Errorf("CategoryID = %q, want empty without boutiqueId", products[0].CategoryID)
	}
}
