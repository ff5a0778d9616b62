package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"stacks/internal/domain"
)

// titleSuffixPatterns lists the per-source suffixes stripped from fetched
// titles, applied in sequence. Patterns that do not match leave the text
// unchanged.
var titleSuffixPatterns = map[string][]*regexp.Regexp{
	domain.SourceRottenTomatoes: {
		regexp.MustCompile(`(?i)\s*[|–-]\s*Rotten Tomatoes$`),
	},
	domain.SourceIMDB: {
		regexp.MustCompile(`(?i)\s*-\s*IMDb$`),
		regexp.MustCompile(`\s*\(\d{4}\)\s*$`),
	},
	domain.SourceJustWatch: {
		regexp.MustCompile(`(?i)\s*\|\s*JustWatch$`),
		regexp.MustCompile(`(?i)\s*-\s*watch streaming online$`),
	},
	domain.SourceIndigo: {
		regexp.MustCompile(`(?i)\s*\|\s*Indigo.*$`),
	},
	domain.SourceAppleMusic: {
		regexp.MustCompile(`(?i)\s+on Apple Music$`),
	},
	domain.SourceYouTubeMusic: {
		regexp.MustCompile(`(?i)\s*[-–|]\s*YouTube Music$`),
	},
	domain.SourceTidal: {
		regexp.MustCompile(`(?i)\s*[-–|]\s*TIDAL$`),
		regexp.MustCompile(`(?i)\s+on TIDAL$`),
	},
	domain.SourceQobuz: {
		regexp.MustCompile(`(?i)\s*[-–|]\s*Qobuz$`),
	},
	domain.SourceGoodreads: {
		regexp.MustCompile(`(?i)\s*\|\s*Goodreads$`),
		regexp.MustCompile(`(?i)\s+by\s+.+\s*\|\s*Goodreads$`),
	},
	domain.SourceGoogleMaps: {
		regexp.MustCompile(`(?i)\s*-\s*Explore in Google Maps$`),
		regexp.MustCompile(`(?i)\s*[-–·]\s*Google Maps$`),
		regexp.MustCompile(`(?i)\s*-\s*Google$`),
	},
}

var artistSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+on Apple Music$`),
	regexp.MustCompile(`(?i)\s*[-–]\s*YouTube Music$`),
	regexp.MustCompile(`(?i)\s*[-–]\s*TIDAL$`),
	regexp.MustCompile(`(?i)\s*[-–]\s*Qobuz$`),
	regexp.MustCompile(`(?i)\s*[-–]\s*Listen on.*$`),
}

var (
	indigoFilenameTitle = regexp.MustCompile(`^\d+\.html$`)
	indigoDescription   = regexp.MustCompile(`(?i)^Buy the (?:book|product)\s+(.+?)\s+by\s+.+?\s+at\s+Indigo`)
	indigoSlugPath      = regexp.MustCompile(`/([^/]+)/\d+\.html`)
	albumByArtist       = regexp.MustCompile(`(?i)^(.+?)\s*-\s*Album by\s+(.+)$`)
	mapsPlacePath       = regexp.MustCompile(`/maps/place/([^/@]+)`)
	visitStoreAuthor    = regexp.MustCompile(`(?i)^Visit the .+ Store$`)
	directorPrefix      = regexp.MustCompile(`(?i)^Director(?:s)?:\s*`)
	directedByPrefix    = regexp.MustCompile(`(?i)^Directed by:\s*`)
	mzstaticSizeToken   = regexp.MustCompile(`\{w\}x\{h\}bb\.\{f\}`)
	mzstaticSizePath    = regexp.MustCompile(`/\d+x\d+[a-z]*\.`)
)

// cleanTitle strips the source's known suffixes. Cleaning never empties
// the string: if stripping removes everything, the raw title comes back.
func cleanTitle(title, source string) string {
	cleaned := title
	for _, pattern := range titleSuffixPatterns[source] {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return title
	}
	return cleaned
}

// extractInput bundles everything a field extractor may consult.
type extractInput struct {
	RawTitle    string
	Title       string // suffix-cleaned raw title
	Description string
	URL         string
	Type        domain.ResourceType
	Author      string
	Publisher   string
}

// fieldExtractor is the per-source capability set. Nil functions fall back
// to the generic rules, and an empty-string result falls through the same
// way, so overrides only claim the cases they understand.
type fieldExtractor struct {
	title   func(in extractInput) string
	creator func(in extractInput) string
	cover   func(imageURL string) string
}

// fieldExtractors maps a source to its extraction overrides. Adding a new
// source means adding an entry here, nothing else.
var fieldExtractors = map[string]fieldExtractor{
	domain.SourceIndigo: {
		title: indigoTitle,
	},
	domain.SourceAppleMusic: {
		title:   albumTitleBeforeBy,
		creator: albumArtistAfterBy,
		cover:   fixAppleMusicCover,
	},
	domain.SourceYouTubeMusic: {
		title:   youtubeMusicAlbumTitle,
		creator: youtubeMusicAlbumArtist,
	},
	domain.SourceTidal: {
		title:   tidalAlbumTitle,
		creator: tidalAlbumArtist,
	},
	domain.SourceGoogleMaps: {
		title: mapsPlaceTitle,
	},
}

// extractTitle turns a raw fetched title into the display title for one
// (source, type) pair. The result is never empty.
func extractTitle(rawTitle, source string, typ domain.ResourceType, pageURL, description string) string {
	in := extractInput{
		RawTitle:    rawTitle,
		Title:       cleanTitle(rawTitle, source),
		Description: description,
		URL:         pageURL,
		Type:        typ,
	}

	title := in.Title
	if ex, ok := fieldExtractors[source]; ok && ex.title != nil {
		if t := ex.title(in); t != "" {
			title = t
		}
	}

	if typ == domain.TypeArtist {
		for _, pattern := range artistSuffixPatterns {
			title = pattern.ReplaceAllString(title, "")
		}
		title = strings.TrimSpace(title)
	}

	if title == "" {
		return "Unknown"
	}
	return title
}

// extractCreator derives the creator/subtitle field from unfurl data.
// Artist records never have one.
func extractCreator(data UnfurlData, source string, typ domain.ResourceType, rawTitle string) string {
	if typ == domain.TypeArtist {
		return ""
	}

	in := extractInput{
		RawTitle:    rawTitle,
		Title:       cleanTitle(rawTitle, source),
		Description: data.Description,
		Type:        typ,
		Author:      data.Author,
		Publisher:   data.Publisher,
	}

	if ex, ok := fieldExtractors[source]; ok && ex.creator != nil {
		if c := ex.creator(in); c != "" {
			return c
		}
	}

	// Amazon brand links masquerade as authors
	if data.Author != "" && !visitStoreAuthor.MatchString(data.Author) {
		author := data.Author
		if typ == domain.TypeMovie {
			author = directorPrefix.ReplaceAllString(author, "")
			author = directedByPrefix.ReplaceAllString(author, "")
			author = strings.TrimSpace(author)
		}
		return author
	}

	// Locations use the description as an address, minus the leading
	// place-name sentence. The generic Google Maps blurb is not an address.
	if typ == domain.TypeLocation && data.Description != "" {
		desc := data.Description
		if strings.Contains(desc, "Find local businesses, view maps") {
			return ""
		}
		if idx := strings.Index(desc, ". "); idx > 0 {
			desc = desc[idx+2:]
		}
		return strings.TrimSpace(strings.TrimSuffix(desc, "."))
	}

	if data.Publisher != "" {
		return data.Publisher
	}

	return ""
}

// fixCoverImageURL rewrites cover URLs that are not directly fetchable.
func fixCoverImageURL(imageURL, source string) string {
	if imageURL == "" {
		return ""
	}
	if ex, ok := fieldExtractors[source]; ok && ex.cover != nil {
		return ex.cover(imageURL)
	}
	return imageURL
}

// indigoTitle recovers a book title when the page title is just the
// catalog filename ("9780743273565.html"): first from the description
// ("Buy the book TITLE by AUTHOR at Indigo"), then from the URL slug.
func indigoTitle(in extractInput) string {
	title := in.Title
	if !indigoFilenameTitle.MatchString(title) && title != in.RawTitle {
		return title
	}

	if in.Description != "" {
		if m := indigoDescription.FindStringSubmatch(in.Description); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	if indigoFilenameTitle.MatchString(title) && in.URL != "" {
		if m := indigoSlugPath.FindStringSubmatch(in.URL); m != nil {
			return titleCaseSlug(m[1])
		}
	}

	return title
}

func titleCaseSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// albumTitleBeforeBy handles "Album Name by Artist" titles: everything
// before the final " by " is the album.
func albumTitleBeforeBy(in extractInput) string {
	if in.Type != domain.TypeAlbum {
		return ""
	}
	if idx := strings.LastIndex(in.Title, " by "); idx > 0 {
		return in.Title[:idx]
	}
	return ""
}

// albumArtistAfterBy is the creator half of albumTitleBeforeBy.
func albumArtistAfterBy(in extractInput) string {
	if in.Type != domain.TypeAlbum {
		return ""
	}
	if idx := strings.LastIndex(in.Title, " by "); idx > 0 {
		return strings.TrimSpace(in.Title[idx+4:])
	}
	return ""
}

// youtubeMusicAlbumTitle handles "ALBUM - Album by Artist" titles.
func youtubeMusicAlbumTitle(in extractInput) string {
	if in.Type != domain.TypeAlbum {
		return ""
	}
	if m := albumByArtist.FindStringSubmatch(in.Title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func youtubeMusicAlbumArtist(in extractInput) string {
	if in.Type != domain.TypeAlbum {
		return ""
	}
	if m := albumByArtist.FindStringSubmatch(in.Title); m != nil {
		return strings.TrimSpace(m[2])
	}
	return ""
}

// tidalAlbumTitle handles both "Album by Artist" and "Artist - Album".
func tidalAlbumTitle(in extractInput) string {
	if in.Type != domain.TypeAlbum {
		return ""
	}
	if idx := strings.LastIndex(in.Title, " by "); idx > 0 {
		return strings.TrimSpace(in.Title[:idx])
	}
	if idx := strings.Index(in.Title, " - "); idx >= 0 {
		return strings.TrimSpace(in.Title[idx+3:])
	}
	return ""
}

func tidalAlbumArtist(in extractInput) string {
	if in.Type != domain.TypeAlbum {
		return ""
	}
	if idx := strings.LastIndex(in.Title, " by "); idx > 0 {
		return strings.TrimSpace(in.Title[idx+4:])
	}
	if idx := strings.Index(in.Title, " - "); idx >= 0 {
		return strings.TrimSpace(in.Title[:idx])
	}
	return ""
}

// mapsPlaceTitle prefers the place name embedded in the URL path over the
// fetched title, which is more reliable for map links.
func mapsPlaceTitle(in extractInput) string {
	if in.URL != "" {
		if name := placeNameFromURL(in.URL); name != "" {
			return name
		}
	}
	if idx := strings.Index(in.Title, " · "); idx >= 0 {
		return strings.TrimSpace(in.Title[:idx])
	}
	return strings.TrimSpace(in.Title)
}

// placeNameFromURL decodes the place segment of a /maps/place/ URL.
func placeNameFromURL(pageURL string) string {
	m := mapsPlacePath.FindStringSubmatch(pageURL)
	if m == nil {
		return ""
	}
	name := strings.ReplaceAll(m[1], "+", " ")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// fixAppleMusicCover rewrites the mzstatic CDN size template into a real
// 600x600 request; the raw template is not a fetchable URL.
func fixAppleMusicCover(imageURL string) string {
	if !strings.Contains(imageURL, "mzstatic.com") {
		return imageURL
	}
	fixed := mzstaticSizeToken.ReplaceAllString(imageURL, "600x600bb.jpg")
	fixed = mzstaticSizePath.ReplaceAllString(fixed, "/600x600bb.")
	return fixed
}
