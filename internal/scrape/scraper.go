package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stacks/internal/domain"
	"stacks/internal/pkg/urlkit"
)

// fetchFunc retrieves partial metadata for one classified URL. rawURL is
// the caller's input, normalized the canonical form. Fetchers never return
// errors: internal failures degrade to partial or empty results.
type fetchFunc func(ctx context.Context, rawURL, normalized string, c urlkit.Classified) domain.ItemData

// Scraper turns a raw URL into a complete item record: classify, resolve
// short links, normalize, fetch via the matching strategy, extract fields,
// and fall back to a page screenshot when no cover image was found.
type Scraper struct {
	unfurl   *UnfurlClient
	logger   *slog.Logger
	renderer *Renderer // optional local screenshot fallback

	httpClient   *http.Client
	placesAPIKey string

	// Endpoint bases, overridable in tests
	spotifyOEmbedURL string
	spotifyEmbedURL  string
	placesSearchURL  string
}

// NewScraper creates a scraper. renderer may be nil; the unfurl screenshot
// mode is then the only cover-image fallback.
func NewScraper(unfurl *UnfurlClient, placesAPIKey string, renderer *Renderer, logger *slog.Logger) *Scraper {
	return &Scraper{
		unfurl:       unfurl,
		logger:       logger,
		renderer:     renderer,
		placesAPIKey: placesAPIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		spotifyOEmbedURL: "https://open.spotify.com/oembed",
		spotifyEmbedURL:  "https://open.spotify.com/embed",
		placesSearchURL:  "https://places.googleapis.com/v1/places:searchText",
	}
}

// dispatch selects the fetch strategy for a classification. The table is
// fixed: exactly one strategy per (source, type) pair, with the unfurl
// service handling every source without a dedicated entry.
func (s *Scraper) dispatch(c urlkit.Classified) fetchFunc {
	switch {
	case c.Source == domain.SourceSpotify && c.Type == domain.TypeAlbum:
		return s.fetchSpotifyAlbum
	case c.Source == domain.SourceSpotify && c.Type == domain.TypeArtist:
		return s.fetchSpotifyArtist
	case c.Source == domain.SourceYouTubeMusic && c.Type == domain.TypeAlbum:
		return s.fetchYouTubeMusicAlbum
	case c.Source == domain.SourceIMDB:
		return s.fetchIMDB
	case c.Source == domain.SourceRottenTomatoes:
		return s.fetchRottenTomatoes
	case c.Source == domain.SourceAppleMusic && c.Type == domain.TypeAlbum:
		return s.fetchAppleMusicAlbum
	case c.Source == domain.SourceAmazon:
		return s.fetchAmazon
	case c.Source == domain.SourceLCBO:
		return s.fetchLCBO
	case c.Source == domain.SourceGoogleMaps:
		return s.fetchGoogleMaps
	default:
		return s.fetchUnfurl
	}
}

// Scrape runs the full pipeline for one URL. It always returns a complete
// ItemData: title non-empty, url canonical, optional fields empty when
// nothing could be extracted.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) domain.ItemData {
	classified := urlkit.Classify(rawURL)
	normalized := urlkit.Normalize(rawURL, classified.Source)

	// Shortened map links hide the place path; resolve before anything else
	if classified.Source == domain.SourceGoogleMaps && isShortMapLink(rawURL) {
		if resolved := s.resolveShortMapLink(ctx, rawURL); resolved != "" {
			normalized = urlkit.Normalize(resolved, classified.Source)
		}
	}

	fetch := s.dispatch(classified)
	scraped := fetch(ctx, rawURL, normalized, classified)

	item := domain.ItemData{
		URL:           normalized,
		Title:         scraped.Title,
		Creator:       scraped.Creator,
		CoverImageURL: scraped.CoverImageURL,
		Type:          classified.Type,
		Source:        classified.Source,
		Price:         scraped.Price,
	}
	if scraped.Type != "" {
		// A fetcher may refine the type (IMDB pages turn out to be shows)
		item.Type = scraped.Type
	}
	if item.Title == "" {
		item.Title = item.Type.UnknownTitle()
	}

	if item.CoverImageURL == "" {
		s.screenshotFallback(ctx, normalized, &item)
	}

	s.logger.Info("Scrape completed",
		"url", normalized,
		"type", item.Type,
		"source", item.Source,
		"title", item.Title,
		"has_cover", item.CoverImageURL != "" || item.Screenshot != nil,
	)

	return item
}

// screenshotFallback asks the unfurl service for a page screenshot, then
// the local renderer. Both are best-effort; failures are ignored.
func (s *Scraper) screenshotFallback(ctx context.Context, pageURL string, item *domain.ItemData) {
	if result := s.unfurl.Fetch(ctx, pageURL, false, true); result != nil {
		if result.Data.Screenshot != nil && result.Data.Screenshot.URL != "" {
			item.CoverImageURL = result.Data.Screenshot.URL
			return
		}
	}

	if s.renderer == nil {
		return
	}
	png, err := s.renderer.Screenshot(ctx, pageURL)
	if err != nil {
		s.logger.Debug("Renderer screenshot failed", "url", pageURL, "error", err)
		return
	}
	item.Screenshot = png
}

// fetchUnfurl is the default strategy: one unfurl API call mapped through
// the per-source field extractors.
func (s *Scraper) fetchUnfurl(ctx context.Context, rawURL, normalized string, c urlkit.Classified) domain.ItemData {
	result := s.unfurl.Fetch(ctx, rawURL, false, false)
	if result == nil {
		return fallbackItemData(normalized, c)
	}

	rawTitle := result.Data.Title
	if rawTitle == "" {
		rawTitle = "Unknown"
	}

	var imageURL string
	if result.Data.Image != nil {
		imageURL = result.Data.Image.URL
	}

	return domain.ItemData{
		Title:         extractTitle(rawTitle, c.Source, c.Type, normalized, result.Data.Description),
		Creator:       extractCreator(result.Data, c.Source, c.Type, rawTitle),
		CoverImageURL: fixCoverImageURL(imageURL, c.Source),
	}
}

// fallbackItemData builds a best-effort record from the URL alone, used
// when every fetch strategy came up empty.
func fallbackItemData(normalized string, c urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown"}

	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Hostname() == "" {
		return item
	}

	if c.Source == domain.SourceGoogleMaps {
		if name := placeNameFromURL(normalized); name != "" {
			item.Title = name
		} else {
			item.Title = "Google Maps Location"
		}
	} else {
		parts := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
		if len(parts) > 0 {
			last := strings.NewReplacer("-", " ", "_", " ").Replace(parts[len(parts)-1])
			if decoded, err := url.PathUnescape(last); err == nil {
				last = decoded
			}
			if last != "" {
				item.Title = last
			}
		}
	}

	if host := strings.TrimPrefix(parsed.Hostname(), "www."); host != "" {
		item.Creator = host
	}

	return item
}
