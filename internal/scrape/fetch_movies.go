package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"stacks/internal/domain"
	"stacks/internal/pkg/urlkit"
)

var (
	imdbTVSeriesTitle = regexp.MustCompile(`(?i)\(TV (?:Series|Mini Series)`)
	imdbTitleYear     = regexp.MustCompile(`\s*\((?:TV (?:Series|Mini Series|Movie|Short|Special) )?\d{4}[^)]*\).*$`)
	inlineSeasonsJSON = regexp.MustCompile(`"seasons":\[([^\]]*)\]`)
	seasonNumberField = regexp.MustCompile(`"number":`)
)

// fetchIMDB scrapes an IMDB title page directly; the unfurl service is
// blocked by its antibot. The OG title format distinguishes movies from
// shows ("The Sopranos (TV Series 1999–2007) ...") so the fetcher may
// refine the classified type.
func (s *Scraper) fetchIMDB(ctx context.Context, rawURL, _ string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Type: domain.TypeMovie}

	p := fetchPage(ctx, s.httpClient, rawURL)

	if title := p.ogTag("title"); title != "" {
		if imdbTVSeriesTitle.MatchString(title) {
			item.Type = domain.TypeShow
		}
		item.Title = strings.TrimSpace(imdbTitleYear.ReplaceAllString(title, ""))
	}

	item.CoverImageURL = p.ogTag("image")

	if ld := p.jsonLD(); ld != nil {
		if item.Type == domain.TypeShow && ld.NumberOfSeasons > 0 {
			item.Creator = seasonCount(ld.NumberOfSeasons)
		} else if item.Type != domain.TypeShow {
			if names := directorNames(ld.Director); len(names) > 0 {
				item.Creator = joinNames(names)
			}
		}
	}

	// Shows without JSON-LD season data: count entries in the inline blob
	if item.Type == domain.TypeShow && item.Creator == "" && p.raw != "" {
		if m := inlineSeasonsJSON.FindStringSubmatch(p.raw); m != nil {
			if count := len(seasonNumberField.FindAllString(m[1], -1)); count > 0 {
				item.Creator = seasonCount(count)
			}
		}
	}

	if item.Title == "" {
		item.Title = item.Type.UnknownTitle()
	}
	return item
}

// fetchRottenTomatoes scrapes a Rotten Tomatoes movie or TV page directly.
func (s *Scraper) fetchRottenTomatoes(ctx context.Context, rawURL, _ string, c urlkit.Classified) domain.ItemData {
	isShow := c.Type == domain.TypeShow
	item := domain.ItemData{}

	p := fetchPage(ctx, s.httpClient, rawURL)

	if title := p.ogTag("title"); title != "" {
		item.Title = cleanTitle(title, domain.SourceRottenTomatoes)
	}

	item.CoverImageURL = p.ogTag("image")

	if ld := p.jsonLD(); ld != nil {
		if isShow && ld.NumberOfSeasons > 0 {
			item.Creator = seasonCount(ld.NumberOfSeasons)
		} else if names := directorNames(ld.Director); len(names) > 0 {
			item.Creator = joinNames(names)
		}
	}

	if item.Title == "" {
		if isShow {
			item.Title = domain.TypeShow.UnknownTitle()
		} else {
			item.Title = domain.TypeMovie.UnknownTitle()
		}
	}
	return item
}

func seasonCount(n int) string {
	if n == 1 {
		return "1 Season"
	}
	return fmt.Sprintf("%d Seasons", n)
}

func joinNames(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}
