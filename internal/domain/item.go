package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResourceType identifies what kind of thing a URL points at.
type ResourceType string

const (
	TypeBook     ResourceType = "book"
	TypeMovie    ResourceType = "movie"
	TypeShow     ResourceType = "show"
	TypeAlbum    ResourceType = "album"
	TypeArtist   ResourceType = "artist"
	TypeProduct  ResourceType = "product"
	TypeLocation ResourceType = "location"
	TypeLink     ResourceType = "link"
)

// Source constants - single source of truth
const (
	SourceGoodreads      = "goodreads"
	SourceAmazon         = "amazon"
	SourceIndigo         = "indigo"
	SourceRottenTomatoes = "rottentomatoes"
	SourceIMDB           = "imdb"
	SourceJustWatch      = "justwatch"
	SourceSpotify        = "spotify"
	SourceAppleMusic     = "applemusic"
	SourceYouTube        = "youtube"
	SourceYouTubeMusic   = "youtubemusic"
	SourceTidal          = "tidal"
	SourceQobuz          = "qobuz"
	SourceLCBO           = "lcbo"
	SourceShopify        = "shopify"
	SourceGoogleMaps     = "googlemaps"
	SourceLink           = "link"
)

// Item is a catalog record built from one scraped URL.
type Item struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	URL           string       `json:"url" db:"url"`
	Title         string       `json:"title" db:"title"`
	Creator       *string      `json:"creator" db:"creator"`
	CoverImageURL *string      `json:"cover_image_url" db:"cover_image_url"`
	Type          ResourceType `json:"type" db:"type"`
	Source        string       `json:"source" db:"source"`
	Price         *string      `json:"price" db:"price"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`

	// AddedAt is the list membership timestamp, populated only when the
	// item was loaded through a list. It drives the pagination cursor.
	AddedAt *time.Time `json:"added_at,omitempty" db:"added_at"`
}

// ItemData carries the fields a fetch strategy managed to extract for one
// URL. Empty strings mean the strategy could not produce the field; the
// orchestrator fills in defaults before the record is persisted.
type ItemData struct {
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	Creator       string       `json:"creator,omitempty"`
	CoverImageURL string       `json:"cover_image_url,omitempty"`
	Type          ResourceType `json:"type,omitempty"`
	Source        string       `json:"source,omitempty"`
	Price         string       `json:"price,omitempty"`

	// Screenshot holds raw PNG bytes captured by the local renderer when no
	// cover image URL could be found. It is re-hosted, never stored inline.
	Screenshot []byte `json:"-"`
}

// UnknownTitle returns the placeholder title used when extraction produced
// nothing usable for this resource type.
func (t ResourceType) UnknownTitle() string {
	switch t {
	case TypeMovie:
		return "Unknown Movie"
	case TypeShow:
		return "Unknown Show"
	case TypeAlbum:
		return "Unknown Album"
	case TypeArtist:
		return "Unknown Artist"
	case TypeProduct:
		return "Unknown Product"
	default:
		return "Unknown"
	}
}

// ToItem converts scraped data into a persistable record, applying the
// documented defaults: title never empty, optional fields nil when absent.
func (d ItemData) ToItem() *Item {
	item := &Item{
		ID:     uuid.New(),
		URL:    d.URL,
		Title:  d.Title,
		Type:   d.Type,
		Source: d.Source,
	}
	if item.Title == "" {
		item.Title = d.Type.UnknownTitle()
	}
	if d.Creator != "" {
		creator := d.Creator
		item.Creator = &creator
	}
	if d.CoverImageURL != "" {
		cover := d.CoverImageURL
		item.CoverImageURL = &cover
	}
	if d.Price != "" {
		price := d.Price
		item.Price = &price
	}
	return item
}
