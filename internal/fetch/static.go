package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/site"
)

// StaticClient performs lightweight HTTP fetches with a realistic browser
// header set. Cookies captured from the browser session can be attached so
// that detail fetches reuse the discovery session's identity.
type StaticClient struct {
	headers map[string]string

	mu      sync.Mutex
	cookies []*http.Cookie
}

// NewStaticClient creates a static client with the site's header set.
func NewStaticClient() *StaticClient {
	return &StaticClient{headers: site.Headers()}
}

// SetCookies replaces the cookie jar contents used on subsequent fetches.
func (c *StaticClient) SetCookies(cookies []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = cookies
	logger.Debug("static client cookies updated", "count", len(cookies))
}

// Get fetches a URL and returns the response body and status code. A
// non-2xx status is reported through the status code, not as an error.
func (c *StaticClient) Get(_ context.Context, targetURL string, timeout time.Duration) (string, int, error) {
	if targetURL == "" {
		return "", 0, fmt.Errorf("empty URL")
	}

	collector := colly.NewCollector(colly.UserAgent(c.headers["User-Agent"]))
	collector.SetRequestTimeout(timeout)

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range c.headers {
			r.Headers.Set(k, v)
		}
	})

	c.mu.Lock()
	cookies := c.cookies
	c.mu.Unlock()
	if len(cookies) > 0 {
		if err := collector.SetCookies(site.BaseURL, cookies); err != nil {
			logger.Debug("static client failed to apply cookies", "error", err)
		}
	}

	var (
		body     string
		status   int
		fetchErr error
	)

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	if err := collector.Visit(targetURL); err != nil {
		return "", status, fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return "", status, fetchErr
	}

	return body, status, nil
}
