package seller

import (
	"context"
	"errors"
	"testing"

	"github.com/ckaraca/tyharvest/internal/fetch"
	"github.com/ckaraca/tyharvest/internal/merchant"
	"github.com/ckaraca/tyharvest/internal/site"
)

type fakeFetcher struct {
	html    string
	err     error
	fetches int
	urls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ fetch.Options) (string, error) {
	f.fetches++
	f.urls = append(f.urls, url)
	return f.html, f.err
}

func storefront(key, payload string) string {
	return `<html><script>window["` + key + `"]=` + payload + `</script></html>`
}

const fullStorefront = `{"seller": {"corporateTitle": "fallback title", "city": "fallback city",
	"corporateInfo": {"officialName": "Öztürk Ticaret A.Ş.", "cityName": "İzmir",
	"registeredEmail": "info@ozturk.example", "taxNumber": "1234567890"}}}`

func TestLookup_ParsesCorporateInfo(t *testing.T) {
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[0], fullStorefront)}
	c := NewCache(f)

	d := c.Lookup(context.Background(), "968", "Öztürk Ticaret", "")
	if d.OfficialName != "Öztürk Ticaret A.Ş." {
		t.Errorf("OfficialName = %q", d.OfficialName)
	}
	if d.City != "İzmir" {
		t.Errorf("City = %q", d.City)
	}
	if d.RegisteredEmail != "info@ozturk.example" {
		t.Errorf("RegisteredEmail = %q", d.RegisteredEmail)
	}
	if d.TaxNumber != "1234567890" {
		t.Errorf("TaxNumber = %q", d.TaxNumber)
	}
}

func TestLookup_AtMostOneFetchPerMerchant(t *testing.T) {
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[0], fullStorefront)}
	c := NewCache(f)

	// The same merchant referenced by records of 3 different products.
	for i := 0; i < 3; i++ {
		c.Lookup(context.Background(), "968", "Öztürk Ticaret", "")
	}

	if f.fetches != 1 {
		t.Errorf("expected exactly 1 fetch for a repeated merchant id, got %d", f.fetches)
	}
}

func TestLookup_NegativeCacheOnFetchFailure(t *testing.T) {
	f := &fakeFetcher{err: errors.New("timeout")}
	c := NewCache(f)

	for i := 0; i < 3; i++ {
		if d := c.Lookup(context.Background(), "7", "Store", ""); !d.isZero() {
			t.Errorf("expected no enrichment after a failed fetch, got %+v", d)
		}
	}
	if f.fetches != 1 {
		t.Errorf("failed lookups must not be retried within a run, got %d fetches", f.fetches)
	}
}

func TestLookup_NegativeCacheOnUnparseablePage(t *testing.T) {
	f := &fakeFetcher{html: "<html>no embedded state here</html>"}
	c := NewCache(f)

	c.Lookup(context.Background(), "7", "Store", "")
	c.Lookup(context.Background(), "7", "Store", "")

	if f.fetches != 1 {
		t.Errorf("unparseable pages must be cached as empty, got %d fetches", f.fetches)
	}
}

func TestLookup_SecondPropsKeyAndMerchantObject(t *testing.T) {
	payload := `{"merchant": {"taxNumber": "555", "corporateInfo": {"cityName": "Bursa"}}}`
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[1], payload)}
	c := NewCache(f)

	d := c.Lookup(context.Background(), "5", "Store", "")
	if d.City != "Bursa" {
		t.Errorf("City = %q, want corporateInfo value", d.City)
	}
	if d.TaxNumber != "555" {
		t.Errorf("TaxNumber = %q, want seller-level fallback", d.TaxNumber)
	}
	if d.RegisteredEmail != "" {
		t.Errorf("email must come only from corporateInfo, got %q", d.RegisteredEmail)
	}
}

func TestLookup_SkipsMissingMerchantID(t *testing.T) {
	f := &fakeFetcher{}
	c := NewCache(f)

	if d := c.Lookup(context.Background(), "", "Store", ""); !d.isZero() {
		t.Errorf("expected zero details, got %+v", d)
	}
	if d := c.Lookup(context.Background(), merchant.Unknown, "Store", ""); !d.isZero() {
		t.Errorf("expected zero details for sentinel id, got %+v", d)
	}
	if f.fetches != 0 {
		t.Errorf("expected no fetches without a merchant id, got %d", f.fetches)
	}
}

func TestLookup_SynthesizesLinkWhenUnknown(t *testing.T) {
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[0], fullStorefront)}
	c := NewCache(f)

	c.Lookup(context.Background(), "968", "Öztürk Ticaret", merchant.Unknown)

	want := site.BaseURL + "/magaza/ozturk-ticaret-m-968"
	if len(f.urls) != 1 || f.urls[0] != want {
		t.Errorf("fetched %v, want synthesized %q", f.urls, want)
	}
}

func TestLookup_PrefersKnownLink(t *testing.T) {
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[0], fullStorefront)}
	c := NewCache(f)

	c.Lookup(context.Background(), "968", "Öztürk Ticaret", "/magaza/custom-path-m-968")

	want := site.BaseURL + "/magaza/custom-path-m-968"
	if len(f.urls) != 1 || f.urls[0] != want {
		t.Errorf("fetched %v, want absolutized known link %q", f.urls, want)
	}
}

func TestEnrich_FillsSentinelFieldsOnly(t *testing.T) {
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[0],
		`{"seller": {"corporateInfo": {"officialName": "Resmi Ünvan", "cityName": "Ankara"}}}`)}
	c := NewCache(f)

	rec := &merchant.Record{
		Type:            merchant.TypePrimary,
		MerchantID:      "42",
		Name:            "Store",
		OfficialName:    merchant.Unknown,
		City:            merchant.Unknown,
		RegisteredEmail: merchant.Unknown,
		TaxNumber:       merchant.Unknown,
		SellerLink:      "/magaza/store-m-42",
	}
	c.Enrich(context.Background(), rec)

	if rec.OfficialName != "Resmi Ünvan" || rec.City != "Ankara" {
		t.Errorf("supplied fields not applied: %q / %q", rec.OfficialName, rec.City)
	}
	// The page carried no email or tax number; the sentinels stay.
	if rec.RegisteredEmail != merchant.Unknown || rec.TaxNumber != merchant.Unknown {
		t.Errorf("unsupplied fields must keep the sentinel: %q / %q", rec.RegisteredEmail, rec.TaxNumber)
	}
	if rec.SellerLink != site.BaseURL+"/magaza/store-m-42" {
		t.Errorf("seller link not re-normalized: %q", rec.SellerLink)
	}
}

func TestEnrich_SkipsFullyKnownPrimary(t *testing.T) {
	f := &fakeFetcher{}
	c := NewCache(f)

	rec := &merchant.Record{
		Type:            merchant.TypePrimary,
		MerchantID:      "42",
		Name:            "Store",
		OfficialName:    "Known Corp",
		City:            "İstanbul",
		RegisteredEmail: "x@example.com",
		TaxNumber:       "1",
		SellerLink:      "https://www.trendyol.com/magaza/store-m-42",
	}
	c.Enrich(context.Background(), rec)

	if f.fetches != 0 {
		t.Errorf("fully known primary records must not be enriched, got %d fetches", f.fetches)
	}
}

func TestEnrich_OtherTypeAlwaysEligible(t *testing.T) {
	f := &fakeFetcher{html: storefront(site.SellerPropsKeys[0], fullStorefront)}
	c := NewCache(f)

	rec := &merchant.Record{
		Type:            merchant.TypeOther,
		MerchantID:      "42",
		Name:            "Store",
		OfficialName:    "Inline Name",
		City:            "İstanbul",
		RegisteredEmail: "x@example.com",
		TaxNumber:       "1",
		SellerLink:      merchant.Unknown,
	}
	c.Enrich(context.Background(), rec)

	if f.fetches != 1 {
		t.Errorf("Other records are always enriched, got %d fetches", f.fetches)
	}
	if rec.SellerLink != site.BaseURL+"/magaza/store-m-42" {
		t.Errorf("seller link should fall back to the synthesized URL, got %q", rec.SellerLink)
	}
}
