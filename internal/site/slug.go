package site

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// NFKD decomposition followed by dropping combining marks folds
	// diacritics to plain ASCII letters ("Mağaza" -> "Magaza").
	deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Slugify lowercases a merchant name into a storefront slug: diacritics are
// stripped, any run of non-alphanumeric characters collapses to a single
// hyphen and leading/trailing hyphens are trimmed. Idempotent on text that
// is already a slug.
func Slugify(value string) string {
	if value == "" {
		return ""
	}
	folded, _, err := transform.String(deaccent, value)
	if err != nil {
		folded = value
	}
	// Anything still outside ASCII did not decompose to a letter; drop it
	// the way an ascii-encode would.
	var ascii strings.Builder
	for _, r := range folded {
		if r < 128 {
			ascii.WriteRune(r)
		}
	}
	slug := nonAlnum.ReplaceAllString(ascii.String(), "-")
	slug = strings.Trim(slug, "-")
	return strings.ToLower(slug)
}
