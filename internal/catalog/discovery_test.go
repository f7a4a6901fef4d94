package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

// fakeSession serves canned result pages keyed by the pi= page index.
type fakeSession struct {
	pages       map[int]string // page index -> HTML
	counts      []int          // successive Count() results; last value repeats
	navErr      map[int]error  // page index -> navigation error
	currentPage int

	navigations int
	countCalls  int
	scrolls     int
	clicks      int
	cookieCalls int
}

func (f *fakeSession) pageIndex(url string) int {
	for page := 1; page <= 50; page++ {
		if strings.Contains(url, fmt.Sprintf("&pi=%d", page)) {
			return page
		}
	}
	return 0
}

func (f *fakeSession) Navigate(_ context.Context, url, _ string) error {
	f.navigations++
	page := f.pageIndex(url)
	f.currentPage = page
	if err, ok := f.navErr[page]; ok {
		return err
	}
	if _, ok := f.pages[page]; !ok {
		return errors.New("timed out waiting for result cards")
	}
	return nil
}

func (f *fakeSession) HTML(context.Context) (string, error) {
	return f.pages[f.currentPage], nil
}

func (f *fakeSession) Count(context.Context, string) (int, error) {
	i := f.countCalls
	f.countCalls++
	if i >= len(f.counts) {
		if len(f.counts) == 0 {
			return 0, nil
		}
		return f.counts[len(f.counts)-1], nil
	}
	return f.counts[i], nil
}

func (f *fakeSession) ScrollToBottom(context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakeSession) ClickVisible(context.Context, string) (bool, error) {
	f.clicks++
	return false, nil
}

func (f *fakeSession) Cookies(context.Context) ([]*http.Cookie, error) {
	f.cookieCalls++
	return []*http.Cookie{{Name: "sid", Value: "abc123"}}, nil
}

type cookieRecorder struct {
	cookies []*http.Cookie
}

func (r *cookieRecorder) SetCookies(cookies []*http.Cookie) { r.cookies = cookies }

// fastConfig removes all pacing so the tests never sleep.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ScrollPause = 0
	cfg.LoadMorePause = 0
	cfg.SettleDelay = 0
	return cfg
}

func manyCards(from, n int) []string {
	cards := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%d", from+i)
		cards = append(cards, card(id, "Product "+id, ""))
	}
	return cards
}

func TestDiscover_ShortPageStopsPagination(t *testing.T) {
	session := &fakeSession{
		pages: map[int]string{
			1: resultPage(card("1", "A", ""), card("2", "B", "")),
			2: resultPage(manyCards(100, 24)...),
		},
		counts: []int{2},
	}

	products, err := New(session, nil, fastConfig()).Discover(context.Background(), "bardak", 5)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products, got %d", len(products))
	}
	if session.navigations != 1 {
		t.Errorf("a short page must halt pagination, got %d page loads", session.navigations)
	}
}

func TestDiscover_ZeroNewProductsStops(t *testing.T) {
	fullPage := resultPage(manyCards(1, 24)...)
	session := &fakeSession{
		// Page 2 repeats page 1, so every card deduplicates away.
		pages:  map[int]string{1: fullPage, 2: fullPage, 3: fullPage},
		counts: []int{24},
	}

	products, err := New(session, nil, fastConfig()).Discover(context.Background(), "bardak", 5)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(products) != 24 {
		t.Errorf("expected 24 products, got %d", len(products))
	}
	if session.navigations != 2 {
		t.Errorf("expected pagination to stop after the duplicate page, got %d loads", session.navigations)
	}
}

func TestDiscover_PageLimitExhausted(t *testing.T) {
	session := &fakeSession{
		pages: map[int]string{
			1: resultPage(manyCards(1, 24)...),
			2: resultPage(manyCards(100, 24)...),
			3: resultPage(manyCards(200, 24)...),
		},
		counts: []int{24},
	}

	products, err := New(session, nil, fastConfig()).Discover(context.Background(), "bardak", 2)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(products) != 48 {
		t.Errorf("expected 48 products, got %d", len(products))
	}
	if session.navigations != 2 {
		t.Errorf("expected exactly 2 page loads, got %d", session.navigations)
	}
}

func TestDiscover_ProductIDsPairwiseDistinct(t *testing.T) {
	session := &fakeSession{
		pages: map[int]string{
			1: resultPage(append(manyCards(1, 23), card("5", "dup", ""))...),
		},
		counts: []int{24},
	}

	products, err := New(session, nil, fastConfig()).Discover(context.Background(), "bardak", 3)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	ids := make(map[string]bool)
	for _, p := range products {
		if ids[p.ID] {
			t.Fatalf("duplicate product id %q in discovery output", p.ID)
		}
		ids[p.ID] = true
	}
}

func TestDiscover_FirstPageFailureIsRunFailure(t *testing.T) {
	session := &fakeSession{
		pages:  map[int]string{},
		navErr: map[int]error{1: errors.New("browser session could not be created")},
	}

	if _, err := New(session, nil, fastConfig()).Discover(context.Background(), "bardak", 3); err == nil {
		t.Fatal("expected a run failure when the first page cannot render")
	}
}

func TestDiscover_LaterPageFailureEndsResults(t *testing.T) {
	session := &fakeSession{
		pages:  map[int]string{1: resultPage(manyCards(1, 24)...)},
		counts: []int{24},
	}

	products, err := New(session, nil, fastConfig()).Discover(context.Background(), "bardak", 5)
	if err != nil {
		t.Fatalf("a page-2 render failure must not fail the run, got %v", err)
	}
	if len(products) != 24 {
		t.Errorf("expected the first page's products, got %d", len(products))
	}
}

func TestDiscover_CookieHandOffAfterFirstPage(t *testing.T) {
	session := &fakeSession{
		pages:  map[int]string{1: resultPage(card("1", "A", ""))},
		counts: []int{1},
	}
	sink := &cookieRecorder{}

	if _, err := New(session, sink, fastConfig()).Discover(context.Background(), "bardak", 1); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(sink.cookies) != 1 || sink.cookies[0].Name != "sid" {
		t.Errorf("expected session cookies handed to the sink, got %+v", sink.cookies)
	}
	if session.cookieCalls != 1 {
		t.Errorf("expected exactly one cookie capture, got %d", session.cookieCalls)
	}
}

func TestStabilize_PureStagnationTerminates(t *testing.T) {
	session := &fakeSession{counts: []int{5}} // count never grows
	cfg := fastConfig()
	d := New(session, nil, cfg)

	d.stabilize(context.Background())

	// Poll 1 records the initial count; polls 2-4 are the three consecutive
	// non-growing rounds that reach the stagnation threshold.
	if session.countCalls != 4 {
		t.Errorf("expected 4 polls, got %d", session.countCalls)
	}
	if session.scrolls != 3 {
		t.Errorf("expected 3 scroll rounds before settling, got %d", session.scrolls)
	}
	if session.countCalls >= cfg.MaxScrollRounds {
		t.Errorf("stagnation should settle well before the %d round bound", cfg.MaxScrollRounds)
	}
}

func TestStabilize_MaxRoundsBoundsGrowingCounts(t *testing.T) {
	counts := make([]int, 0, 64)
	for i := 1; i <= 64; i++ {
		counts = append(counts, i) // always growing, never stagnates
	}
	session := &fakeSession{counts: counts}
	cfg := fastConfig()
	cfg.MaxScrollRounds = 10

	New(session, nil, cfg).stabilize(context.Background())

	if session.countCalls != 10 {
		t.Errorf("expected the round bound to stop polling at 10, got %d", session.countCalls)
	}
}

func TestDiscover_PageStartedCallback(t *testing.T) {
	session := &fakeSession{
		pages: map[int]string{
			1: resultPage(manyCards(1, 24)...),
			2: resultPage(card("900", "Last", "")),
		},
		counts: []int{24},
	}

	var pages []int
	cfg := fastConfig()
	cfg.PageStarted = func(page, discovered int) { pages = append(pages, page) }

	if _, err := New(session, nil, cfg).Discover(context.Background(), "bardak", 5); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Errorf("expected callbacks for pages [1 2], got %v", pages)
	}
}
