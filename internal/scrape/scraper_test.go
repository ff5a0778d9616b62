package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"stacks/internal/domain"
)

// createTestLogger creates a logger for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors during tests
	}))
}

func newTestScraper(unfurlURL string) *Scraper {
	logger := createTestLogger()
	unfurl := NewUnfurlClient(unfurlURL, "", logger)
	return NewScraper(unfurl, "", nil, logger)
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScrapeSpotifyAlbum(t *testing.T) {
	oembedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got == "" {
			t.Errorf("oEmbed request missing url parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Currents","thumbnail_url":"https://i.scdn.co/image/cover"}`))
	}))
	defer oembedServer.Close()

	embedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/album/3abc123XYZ" {
			t.Errorf("embed request path = %q", r.URL.Path)
		}
		w.Write([]byte(`<script>{"name":"Currents","subtitle":"Tame Impala"}</script>`))
	}))
	defer embedServer.Close()

	scraper := newTestScraper(failingServer(t).URL)
	scraper.spotifyOEmbedURL = oembedServer.URL
	scraper.spotifyEmbedURL = embedServer.URL

	item := scraper.Scrape(context.Background(), "https://open.spotify.com/album/3abc123XYZ?si=tracking")

	if item.Title != "Currents" {
		t.Errorf("Title = %q, want %q", item.Title, "Currents")
	}
	if item.Creator != "Tame Impala" {
		t.Errorf("Creator = %q, want %q", item.Creator, "Tame Impala")
	}
	if item.CoverImageURL != "https://i.scdn.co/image/cover" {
		t.Errorf("CoverImageURL = %q", item.CoverImageURL)
	}
	if item.Type != domain.TypeAlbum {
		t.Errorf("Type = %q, want album", item.Type)
	}
	if item.Source != domain.SourceSpotify {
		t.Errorf("Source = %q, want spotify", item.Source)
	}
	if item.URL != "https://open.spotify.com/album/3abc123XYZ" {
		t.Errorf("URL = %q, tracking params not stripped", item.URL)
	}
}

func TestScrapeUnfurlSuccess(t *testing.T) {
	unfurlServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"title": "The Great Gatsby | Goodreads",
				"author": "F. Scott Fitzgerald",
				"image": {"url": "https://images.gr-assets.com/books/gatsby.jpg"}
			}
		}`))
	}))
	defer unfurlServer.Close()

	scraper := newTestScraper(unfurlServer.URL)

	item := scraper.Scrape(context.Background(), "https://www.goodreads.com/book/show/4671.The_Great_Gatsby")

	if item.Title != "The Great Gatsby" {
		t.Errorf("Title = %q, want %q", item.Title, "The Great Gatsby")
	}
	if item.Creator != "F. Scott Fitzgerald" {
		t.Errorf("Creator = %q", item.Creator)
	}
	if item.CoverImageURL != "https://images.gr-assets.com/books/gatsby.jpg" {
		t.Errorf("CoverImageURL = %q", item.CoverImageURL)
	}
	if item.Type != domain.TypeBook {
		t.Errorf("Type = %q, want book", item.Type)
	}
	if item.Source != domain.SourceGoodreads {
		t.Errorf("Source = %q, want goodreads", item.Source)
	}
}

func TestScrapeUnfurlFailureFallsBackToURL(t *testing.T) {
	scraper := newTestScraper(failingServer(t).URL)

	item := scraper.Scrape(context.Background(), "https://example.com/some-page")

	if item.Title != "some page" {
		t.Errorf("Title = %q, want %q", item.Title, "some page")
	}
	if item.Creator != "example.com" {
		t.Errorf("Creator = %q, want %q", item.Creator, "example.com")
	}
	if item.Type != domain.TypeLink {
		t.Errorf("Type = %q, want link", item.Type)
	}
	if item.CoverImageURL != "" {
		t.Errorf("CoverImageURL = %q, want empty", item.CoverImageURL)
	}
}

func TestScrapeGoogleMapsWithoutAPIKey(t *testing.T) {
	scraper := newTestScraper(failingServer(t).URL)

	item := scraper.Scrape(context.Background(), "https://www.google.com/maps/place/Parliament+Hill/@45.4235,-75.7009,17z")

	if item.Title != "Parliament Hill" {
		t.Errorf("Title = %q, want %q", item.Title, "Parliament Hill")
	}
	if item.Type != domain.TypeLocation {
		t.Errorf("Type = %q, want location", item.Type)
	}
	if item.Source != domain.SourceGoogleMaps {
		t.Errorf("Source = %q, want googlemaps", item.Source)
	}
}

func TestScrapeGoogleMapsWithPlacesAPI(t *testing.T) {
	placesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"places": [{
				"displayName": {"text": "Parliament Hill"},
				"formattedAddress": "Wellington St, Ottawa, ON K1A 0A9, Canada",
				"photos": [{"name": "places/abc/photos/def"}]
			}]
		}`))
	}))
	defer placesServer.Close()

	scraper := newTestScraper(failingServer(t).URL)
	scraper.placesAPIKey = "test-key"
	scraper.placesSearchURL = placesServer.URL

	item := scraper.Scrape(context.Background(), "https://www.google.com/maps/place/Parliament+Hill/@45.4235,-75.7009,17z")

	if item.Title != "Parliament Hill" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Creator != "Wellington St, Ottawa, Canada" {
		t.Errorf("Creator = %q, want cleaned address", item.Creator)
	}
	if item.CoverImageURL == "" {
		t.Error("CoverImageURL empty, want photo media URL")
	}
}

func TestScrapeUnparseableInput(t *testing.T) {
	scraper := newTestScraper(failingServer(t).URL)

	item := scraper.Scrape(context.Background(), "not a url")

	if item.Title != "Unknown" {
		t.Errorf("Title = %q, want %q", item.Title, "Unknown")
	}
	if item.Type != domain.TypeLink {
		t.Errorf("Type = %q, want link", item.Type)
	}
}

func TestScrapeScreenshotFallback(t *testing.T) {
	// First call (metadata) has no image; second call (screenshot mode)
	// returns one
	unfurlServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("screenshot") == "true" {
			w.Write([]byte(`{"status":"success","data":{"screenshot":{"url":"https://shots.example.com/page.png"}}}`))
			return
		}
		w.Write([]byte(`{"status":"success","data":{"title":"Plain Page"}}`))
	}))
	defer unfurlServer.Close()

	scraper := newTestScraper(unfurlServer.URL)

	item := scraper.Scrape(context.Background(), "https://example.com/plain")

	if item.CoverImageURL != "https://shots.example.com/page.png" {
		t.Errorf("CoverImageURL = %q, want screenshot URL", item.CoverImageURL)
	}
}

func TestUnfurlClientReportedFailure(t *testing.T) {
	unfurlServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"fail","data":{}}`))
	}))
	defer unfurlServer.Close()

	client := NewUnfurlClient(unfurlServer.URL, "", createTestLogger())

	if result := client.Fetch(context.Background(), "https://example.com", false, false); result != nil {
		t.Errorf("Fetch() = %+v, want nil for non-success status", result)
	}
}
