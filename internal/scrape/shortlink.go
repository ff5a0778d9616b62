package scrape

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// isShortMapLink reports whether the URL is a shortened Google Maps share
// link (maps.app.goo.gl or goo.gl/maps) rather than a full place URL.
func isShortMapLink(rawURL string) bool {
	return strings.Contains(rawURL, "goo.gl") || strings.Contains(rawURL, "maps.app")
}

// resolveShortMapLink expands a shortened map link to the full place URL.
// It follows redirects directly first, then falls back to the unfurl
// service's prerendered resolution. Returns "" when both fail.
func (s *Scraper) resolveShortMapLink(ctx context.Context, shortURL string) string {
	client := &http.Client{
		Timeout: 8 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, "HEAD", shortURL, nil)
	if err == nil {
		req.Header.Set("User-Agent", browserUserAgent)
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			final := resp.Request.URL.String()
			if strings.Contains(final, "/maps/place/") {
				return final
			}
		}
	}

	// Redirect chain didn't land on a place page; let the unfurl service
	// render the page and report its canonical URL.
	if result := s.unfurl.Fetch(ctx, shortURL, true, false); result != nil {
		if strings.Contains(result.Data.URL, "/maps/place/") {
			return result.Data.URL
		}
	}

	s.logger.Warn("Could not resolve shortened map link", "url", shortURL)
	return ""
}
