package site

import (
	"strings"
	"testing"
)

func TestSearchURL_EncodesTermInAllSlots(t *testing.T) {
	u := SearchURL("cam bardak", 3)

	if got := strings.Count(u, "cam+bardak"); got != 3 {
		t.Errorf("expected encoded term 3 times, got %d in %q", got, u)
	}
	if !strings.Contains(u, "&pi=3") {
		t.Errorf("expected page index in URL, got %q", u)
	}
	if !strings.Contains(u, "&os=1") {
		t.Errorf("expected options flag in URL, got %q", u)
	}
	if !strings.HasPrefix(u, BaseURL+"/sr?q=") {
		t.Errorf("unexpected URL prefix: %q", u)
	}
}

func TestSellerURL(t *testing.T) {
	got := SellerURL("Öztürk Mağaza", "1042")
	want := BaseURL + "/magaza/ozturk-magaza-m-1042"
	if got != want {
		t.Errorf("SellerURL() = %q, want %q", got, want)
	}
}

func TestSellerURL_MissingParts(t *testing.T) {
	if got := SellerURL("", "1042"); got != "" {
		t.Errorf("expected empty URL for missing name, got %q", got)
	}
	if got := SellerURL("Store", ""); got != "" {
		t.Errorf("expected empty URL for missing id, got %q", got)
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already absolute", "https://www.trendyol.com/x", "https://www.trendyol.com/x"},
		{"rooted path", "/magaza/abc-m-1", BaseURL + "/magaza/abc-m-1"},
		{"bare path", "magaza/abc-m-1", BaseURL + "/magaza/abc-m-1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.in); got != tt.want {
				t.Errorf("AbsoluteURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugify_StripsDiacritics(t *testing.T) {
	if got := Slugify("Öztürk Mağaza"); got != "ozturk-magaza" {
		t.Errorf("Slugify() = %q, want %q", got, "ozturk-magaza")
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	slug := Slugify("Çiçek & Sepeti A.Ş.")
	if got := Slugify(slug); got != slug {
		t.Errorf("Slugify not idempotent: %q -> %q", slug, got)
	}
}

func TestSlugify_CollapsesSeparators(t *testing.T) {
	if got := Slugify("  A -- B__C  "); got != "a-b-c" {
		t.Errorf("Slugify() = %q, want %q", got, "a-b-c")
	}
}

func TestSlugify_Empty(t *testing.T) {
	if got := Slugify(""); got != "" {
		t.Errorf("Slugify(\"\") = %q, want empty", got)
	}
}
