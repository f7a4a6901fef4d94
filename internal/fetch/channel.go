// Package fetch provides the dual-mode page retrieval channel: a
// lightweight HTTP client with fallback to a shared browser-rendering
// session when the lightweight result does not carry the expected
// embedded-state marker.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/ckaraca/tyharvest/internal/logger"
)

// Renderer is the browser side of the channel. *Browser implements it; tests
// substitute fakes.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Getter is the lightweight side of the channel.
type Getter interface {
	Get(ctx context.Context, url string, timeout time.Duration) (string, int, error)
}

// Options controls a single channel fetch.
type Options struct {
	// Timeout bounds the lightweight attempt.
	Timeout time.Duration

	// Marker, when set, is a substring the lightweight response body must
	// contain to be accepted. A body without it is treated as not rendered
	// and triggers the browser fallback.
	Marker string
}

// Channel retrieves pages static-first with a browser fallback. All
// failures surface as an error the caller treats as "no data", never as a
// run failure.
type Channel struct {
	static  Getter
	browser Renderer
}

// NewChannel builds a channel over the given static client and browser
// session.
func NewChannel(static Getter, browser Renderer) *Channel {
	return &Channel{static: static, browser: browser}
}

// Fetch retrieves the rendered HTML for a URL. The lightweight result is
// accepted only when the response is successful and carries the marker;
// otherwise the page is rendered in the browser session.
func (c *Channel) Fetch(ctx context.Context, url string, opts Options) (string, error) {
	body, status, err := c.static.Get(ctx, url, opts.Timeout)
	if err == nil && status >= 200 && status < 300 {
		if opts.Marker == "" || strings.Contains(body, opts.Marker) {
			logger.Debug("fetch served statically", "url", url, "status", status)
			return body, nil
		}
		logger.Debug("fetch marker missing, falling back to browser", "url", url)
	} else {
		logger.Debug("static fetch rejected, falling back to browser",
			"url", url, "status", status, "error", err)
	}

	html, err := c.browser.Render(ctx, url)
	if err != nil {
		return "", err
	}
	return html, nil
}
