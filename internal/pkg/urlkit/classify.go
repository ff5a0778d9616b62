package urlkit

import (
	"net/url"
	"regexp"
	"strings"

	"stacks/internal/domain"
)

// Classified is the (type, source) pair detected for a URL.
type Classified struct {
	Type   domain.ResourceType
	Source string
}

type rule struct {
	typ     domain.ResourceType
	source  string
	pattern *regexp.Regexp
}

// rules is a priority-ordered list evaluated with first-match-wins
// semantics. Order matters: the generic "/products/" Shopify rules sit
// below every host-specific product rule they would otherwise shadow.
var rules = []rule{
	{domain.TypeBook, domain.SourceGoodreads, regexp.MustCompile(`^https?://(www\.)?goodreads\.com/book/show/.+`)},
	{domain.TypeProduct, domain.SourceAmazon, regexp.MustCompile(`^https?://(www\.)?amazon\.(com|ca|co\.uk|com\.au|de|fr|es|it|nl|se|pl|co\.jp|com\.br|com\.mx|in|sg)/.+/(dp|gp/product)/[A-Z0-9]+`)},
	{domain.TypeBook, domain.SourceIndigo, regexp.MustCompile(`^https?://(www\.)?indigo\.ca/.+/\d+\.html`)},
	{domain.TypeMovie, domain.SourceRottenTomatoes, regexp.MustCompile(`^https?://(www\.)?rottentomatoes\.com/m/.+`)},
	{domain.TypeShow, domain.SourceRottenTomatoes, regexp.MustCompile(`^https?://(www\.)?rottentomatoes\.com/tv/.+`)},
	{domain.TypeMovie, domain.SourceIMDB, regexp.MustCompile(`^https?://(www\.)?imdb\.com/title/.+`)},
	{domain.TypeMovie, domain.SourceJustWatch, regexp.MustCompile(`^https?://(www\.)?justwatch\.com/.+/movie/.+`)},
	{domain.TypeAlbum, domain.SourceSpotify, regexp.MustCompile(`^https?://open\.spotify\.com/album/.+`)},
	{domain.TypeAlbum, domain.SourceAppleMusic, regexp.MustCompile(`^https?://music\.apple\.com/.+/album/.+`)},
	{domain.TypeAlbum, domain.SourceYouTubeMusic, regexp.MustCompile(`^https?://music\.youtube\.com/playlist\?.+`)},
	{domain.TypeAlbum, domain.SourceTidal, regexp.MustCompile(`^https?://(www\.|listen\.)?tidal\.com/album/.+`)},
	{domain.TypeAlbum, domain.SourceQobuz, regexp.MustCompile(`^https?://(www\.)?qobuz\.com/.+/album/.+`)},
	// Artists
	{domain.TypeArtist, domain.SourceSpotify, regexp.MustCompile(`^https?://open\.spotify\.com/artist/.+`)},
	{domain.TypeArtist, domain.SourceAppleMusic, regexp.MustCompile(`^https?://music\.apple\.com/.+/artist/.+`)},
	{domain.TypeArtist, domain.SourceYouTubeMusic, regexp.MustCompile(`^https?://music\.youtube\.com/channel/.+`)},
	{domain.TypeArtist, domain.SourceTidal, regexp.MustCompile(`^https?://(www\.|listen\.)?tidal\.com/artist/.+`)},
	{domain.TypeArtist, domain.SourceQobuz, regexp.MustCompile(`^https?://(www\.)?qobuz\.com/.+/artist/.+`)},
	// LCBO
	{domain.TypeProduct, domain.SourceLCBO, regexp.MustCompile(`^https?://(www\.)?lcbo\.com/en/.+`)},
	// E-commerce / Products - Shopify stores (myshopify.com or /products/ path)
	{domain.TypeProduct, domain.SourceShopify, regexp.MustCompile(`^https?://[^/]+\.myshopify\.com/products/.+`)},
	{domain.TypeProduct, domain.SourceShopify, regexp.MustCompile(`^https?://[^/]+/.+/products/[^/]+$`)},
	{domain.TypeProduct, domain.SourceShopify, regexp.MustCompile(`^https?://[^/]+/products/[^/]+$`)},
	// Google Maps locations
	{domain.TypeLocation, domain.SourceGoogleMaps, regexp.MustCompile(`^https?://maps\.app\.goo\.gl/.+`)},
	{domain.TypeLocation, domain.SourceGoogleMaps, regexp.MustCompile(`^https?://goo\.gl/maps/.+`)},
	{domain.TypeLocation, domain.SourceGoogleMaps, regexp.MustCompile(`^https?://(www\.)?google\.[a-z.]+/maps/place/.+`)},
}

// Classify maps a raw URL to a (type, source) pair. It is total: any
// string, including empty or malformed input, produces a value. Unmatched
// URLs fall back to a generic link classification keyed by hostname.
func Classify(rawURL string) Classified {
	for _, r := range rules {
		if r.pattern.MatchString(rawURL) {
			return Classified{Type: r.typ, Source: r.source}
		}
	}

	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return Classified{
			Type:   domain.TypeLink,
			Source: strings.TrimPrefix(u.Hostname(), "www."),
		}
	}

	return Classified{Type: domain.TypeLink, Source: domain.SourceLink}
}
