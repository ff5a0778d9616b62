package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"stacks/internal/domain"
	"stacks/internal/pkg/urlkit"
)

var (
	spotifyAlbumID    = regexp.MustCompile(`/album/([a-zA-Z0-9]+)`)
	embedSubtitleJSON = regexp.MustCompile(`"subtitle"\s*:\s*"([^"]+)"`)
)

// spotifyOEmbed is the subset of the oEmbed response we consume. The
// standard response omits the artist, hence the embed-page second pass.
type spotifyOEmbed struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// fetchSpotifyAlbum combines the public oEmbed endpoint (title, thumbnail)
// with the embed page's inline JSON (artist), since oEmbed alone has no
// creator field.
func (s *Scraper) fetchSpotifyAlbum(ctx context.Context, rawURL, _ string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown Title"}

	if oembed := s.fetchSpotifyOEmbed(ctx, rawURL); oembed != nil {
		if oembed.Title != "" {
			item.Title = oembed.Title
		}
		item.CoverImageURL = oembed.ThumbnailURL
	}

	if m := spotifyAlbumID.FindStringSubmatch(rawURL); m != nil {
		if subtitle := s.fetchEmbedSubtitle(ctx, "/album/"+m[1]); subtitle != "" {
			item.Creator = subtitle
		}
	}

	return item
}

// fetchSpotifyArtist needs only the oEmbed pass; artists have no creator.
func (s *Scraper) fetchSpotifyArtist(ctx context.Context, rawURL, _ string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown Artist"}

	if oembed := s.fetchSpotifyOEmbed(ctx, rawURL); oembed != nil {
		if oembed.Title != "" {
			item.Title = oembed.Title
		}
		item.CoverImageURL = oembed.ThumbnailURL
	}

	return item
}

func (s *Scraper) fetchSpotifyOEmbed(ctx context.Context, resourceURL string) *spotifyOEmbed {
	oembedURL := s.spotifyOEmbedURL + "?url=" + url.QueryEscape(resourceURL)

	req, err := http.NewRequestWithContext(ctx, "GET", oembedURL, nil)
	if err != nil {
		return nil
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("Spotify oEmbed request failed", "url", resourceURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var oembed spotifyOEmbed
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err != nil {
		return nil
	}
	return &oembed
}

// fetchEmbedSubtitle regex-extracts the "subtitle" field from the public
// embed page's inline JSON.
func (s *Scraper) fetchEmbedSubtitle(ctx context.Context, embedPath string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", s.spotifyEmbedURL+embedPath, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("Spotify embed request failed", "path", embedPath, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}

	if m := embedSubtitleJSON.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}
