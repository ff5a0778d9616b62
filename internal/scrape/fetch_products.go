package scrape

import (
	"context"
	"regexp"
	"strings"

	"stacks/internal/domain"
	"stacks/internal/pkg/urlkit"
)

var (
	amazonHiResImage   = regexp.MustCompile(`"hiRes"\s*:\s*"([^"]+)"`)
	amazonLargeImage   = regexp.MustCompile(`"large"\s*:\s*"([^"]+)"`)
	amazonLandingImage = regexp.MustCompile(`id="landingImage"[^>]+src="([^"]+)"`)
	amazonTitleColon   = regexp.MustCompile(`\s*:\s*Amazon\.\w+\s*:.*$`)
	amazonTitleDash    = regexp.MustCompile(`\s*-\s*Amazon\.\w+.*$`)
	lcboSuffix         = regexp.MustCompile(`(?i)\s*\|\s*LCBO$`)
	priceMetaTag       = regexp.MustCompile(`<meta\s+(?:property|name)="product:price:amount"\s+content="([^"]+)"`)
	inlinePriceJSON    = regexp.MustCompile(`"price"\s*:\s*"?\$?([\d,.]+)"?`)
)

// fetchAmazon scrapes an Amazon product page directly; the unfurl service
// is intermittently blocked. Operates on the normalized /dp/ URL. Product
// images often live only in inline JSON, not OG tags.
func (s *Scraper) fetchAmazon(ctx context.Context, _, normalized string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown Product"}

	p := fetchPage(ctx, s.httpClient, normalized)

	if title := p.ogTag("title"); title != "" {
		item.Title = title
	}
	item.CoverImageURL = p.ogTag("image")

	if item.CoverImageURL == "" && p.raw != "" {
		for _, pattern := range []*regexp.Regexp{amazonHiResImage, amazonLargeImage, amazonLandingImage} {
			if m := pattern.FindStringSubmatch(p.raw); m != nil {
				item.CoverImageURL = m[1]
				break
			}
		}
	}

	// Fall back to the <title> tag, minus the "Amazon.com : ..." chrome
	if item.Title == "Unknown Product" {
		if title := p.titleTag(); title != "" {
			title = amazonTitleColon.ReplaceAllString(title, "")
			title = amazonTitleDash.ReplaceAllString(title, "")
			if title = strings.TrimSpace(title); title != "" {
				item.Title = title
			}
		}
	}

	return item
}

// fetchLCBO scrapes an LCBO product page directly; the unfurl service is
// blocked by its WAF. This is the one source with price extraction.
func (s *Scraper) fetchLCBO(ctx context.Context, rawURL, _ string, _ urlkit.Classified) domain.ItemData {
	item := domain.ItemData{Title: "Unknown Product"}

	p := fetchPage(ctx, s.httpClient, rawURL)

	if title := p.ogTag("title"); title != "" {
		if cleaned := strings.TrimSpace(lcboSuffix.ReplaceAllString(title, "")); cleaned != "" {
			item.Title = cleaned
		}
	}

	item.CoverImageURL = p.ogTag("image")

	if p.raw != "" {
		if m := priceMetaTag.FindStringSubmatch(p.raw); m != nil {
			item.Price = "$" + m[1]
		} else if m := inlinePriceJSON.FindStringSubmatch(p.raw); m != nil {
			item.Price = "$" + m[1]
		}
	}

	return item
}
