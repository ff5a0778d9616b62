package urlkit

import (
	"net/url"
	"regexp"
	"strings"

	"stacks/internal/domain"
)

var amazonProductPath = regexp.MustCompile(`/(dp|gp/product)/([A-Z0-9]+)`)

// Normalize produces the canonical form of a URL used for deduplication.
// Per-source rules extract stable identifiers; everything else gets the
// query string and trailing slash stripped. Normalize never fails: on any
// parse error it falls back to the naive strip-query behavior, and it is
// idempotent for every source.
func Normalize(rawURL, source string) string {
	switch canonicalSource(rawURL, source) {
	case domain.SourceAmazon:
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return stripQuery(rawURL)
		}
		if m := amazonProductPath.FindStringSubmatch(parsed.Path); m != nil {
			return origin(parsed) + "/dp/" + m[2]
		}

	case domain.SourceYouTube:
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return rawURL
		}
		if parsed.Hostname() == "youtu.be" {
			videoID := strings.TrimPrefix(parsed.Path, "/")
			if videoID != "" {
				return "https://www.youtube.com/watch?v=" + videoID
			}
			return rawURL
		}
		if videoID := parsed.Query().Get("v"); videoID != "" {
			return "https://www.youtube.com/watch?v=" + videoID
		}
		return rawURL

	case domain.SourceYouTubeMusic:
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return rawURL
		}
		if list := parsed.Query().Get("list"); list != "" {
			return origin(parsed) + parsed.EscapedPath() + "?list=" + list
		}
		return rawURL

	case domain.SourceGoogleMaps:
		if parsed, err := url.Parse(rawURL); err == nil {
			return strings.TrimSuffix(origin(parsed)+parsed.EscapedPath(), "/")
		}
	}

	return stripQuery(rawURL)
}

// canonicalSource maps hostname-derived fallback sources (a generic link
// classified as "youtube.com" or "youtu.be") onto the normalization rule
// they belong to. Explicit sources pass through untouched.
func canonicalSource(rawURL, source string) string {
	switch source {
	case domain.SourceAmazon, domain.SourceYouTube, domain.SourceYouTubeMusic, domain.SourceGoogleMaps:
		return source
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return source
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "music.youtube.com"):
		return domain.SourceYouTubeMusic
	case strings.Contains(host, "youtube.com") || host == "youtu.be":
		return domain.SourceYouTube
	case strings.Contains(host, "amazon."):
		return domain.SourceAmazon
	case strings.Contains(host, "google.") && strings.Contains(u.Path, "/maps"):
		return domain.SourceGoogleMaps
	}
	return source
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

func stripQuery(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return strings.TrimSuffix(rawURL, "/")
}
