package scrape

import (
	"context"
	"regexp"
	"strings"

	"stacks/internal/domain"
	"stacks/internal/pkg/urlkit"
)

var (
	appleAlbumByArtist = regexp.MustCompile(`(?i)^(.+?)\s*-\s*Album by\s+(.+?)\s*-\s*Apple Music$`)
	appleMusicSuffix   = regexp.MustCompile(`(?i)\s*-\s*Apple Music$`)
	onAppleMusicSuffix = regexp.MustCompile(`(?i)\s+on Apple Music$`)
	ytMusicSuffix      = regexp.MustCompile(`(?i)\s*[-|]\s*YouTube Music$`)
	listenToByArtist   = regexp.MustCompile(`(?i)^Listen to .+? by (.+?) on YouTube Music`)
)

// fetchAppleMusicAlbum scrapes an Apple Music album page directly; the
// unfurl service 404s on these. The OG title carries both album and artist:
// "Abbey Road (2019 Mix) - Album by The Beatles - Apple Music".
func (s *Scraper) fetchAppleMusicAlbum(ctx context.Context, rawURL, _ string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown Album"}

	p := fetchPage(ctx, s.httpClient, rawURL)

	if title := p.ogTag("title"); title != "" {
		if m := appleAlbumByArtist.FindStringSubmatch(title); m != nil {
			item.Title = strings.TrimSpace(m[1])
			item.Creator = strings.TrimSpace(m[2])
		} else {
			cleaned := appleMusicSuffix.ReplaceAllString(title, "")
			cleaned = onAppleMusicSuffix.ReplaceAllString(cleaned, "")
			if cleaned = strings.TrimSpace(cleaned); cleaned != "" {
				item.Title = cleaned
			}
		}
	}

	if image := p.ogTag("image"); image != "" {
		item.CoverImageURL = fixCoverImageURL(image, domain.SourceAppleMusic)
	}

	return item
}

// fetchYouTubeMusicAlbum scrapes a YouTube Music playlist page directly;
// the unfurl service fails on playlist URLs.
func (s *Scraper) fetchYouTubeMusicAlbum(ctx context.Context, rawURL, _ string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown Album"}

	p := fetchPage(ctx, s.httpClient, rawURL)

	if title := p.ogTag("title"); title != "" {
		if m := albumByArtist.FindStringSubmatch(title); m != nil {
			item.Title = strings.TrimSpace(m[1])
			item.Creator = strings.TrimSpace(m[2])
		} else if cleaned := strings.TrimSpace(ytMusicSuffix.ReplaceAllString(title, "")); cleaned != "" {
			item.Title = cleaned
		}
	}

	// The description names the artist when the title pattern misses:
	// "Listen to ALBUM by ARTIST on YouTube Music"
	if item.Creator == "" {
		if desc := p.ogTag("description"); desc != "" {
			if m := listenToByArtist.FindStringSubmatch(desc); m != nil {
				item.Creator = strings.TrimSpace(m[1])
			}
		}
	}

	item.CoverImageURL = p.ogTag("image")

	return item
}
