// Package state extracts the JSON state blob Trendyol embeds into its
// rendered pages. The site's scripts assign the payload to a script-scoped
// variable (window["<key>"]=<JSON>;) instead of serving it over an API, so
// the raw markup is the only place to read it from.
package state

import (
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

var (
	patternMu sync.Mutex
	patterns  = map[string]*regexp.Regexp{}
)

// pattern returns the compiled matcher for one embedded-state key. The
// payload runs up to the closing script tag; (?s) lets it span lines and the
// non-greedy body stops at the first </script>.
func pattern(key string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	re, ok := patterns[key]
	if !ok {
		re = regexp.MustCompile(`(?s)window\["` + regexp.QuoteMeta(key) + `"\]=({.*?})</script>`)
		patterns[key] = re
	}
	return re
}

// Extract locates the first embedded-state assignment matching any of the
// given keys, in order, and parses it as JSON. The key order is a preference
// list: the site exposes the same payload under different feature-flagged
// names. A missing marker or invalid JSON yields ok=false, never an error.
func Extract(html string, keys ...string) (gjson.Result, bool) {
	if html == "" {
		return gjson.Result{}, false
	}
	for _, key := range keys {
		m := pattern(key).FindStringSubmatch(html)
		if m == nil {
			continue
		}
		payload := strings.TrimSuffix(strings.TrimSpace(m[1]), ";")
		if !gjson.Valid(payload) {
			continue
		}
		return gjson.Parse(payload), true
	}
	return gjson.Result{}, false
}
