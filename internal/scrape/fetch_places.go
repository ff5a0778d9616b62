package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"stacks/internal/domain"
	"stacks/internal/pkg/urlkit"
)

var mapsCoordinates = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)

// placesSearchRequest is the Places searchText request body. The location
// bias circle steers the search toward the coordinates embedded in the
// original URL, which disambiguates chains and common names.
type placesSearchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type placeResult struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Photos           []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

type placesSearchResponse struct {
	Places []placeResult `json:"places"`
}

// fetchGoogleMaps resolves a map location through the Places API. The
// place name and coordinates come from the URL path itself, not fetched
// HTML. Without an API key, or when the call fails, it degrades to the
// URL-parsed name alone.
func (s *Scraper) fetchGoogleMaps(ctx context.Context, _, normalized string, _ urlkit.Classified) domain.ItemData {
	query := placeNameFromURL(normalized)

	if query == "" || s.placesAPIKey == "" {
		title := query
		if title == "" {
			title = "Google Maps Location"
		}
		return domain.ItemData{Title: title}
	}

	body := placesSearchRequest{TextQuery: query}
	if m := mapsCoordinates.FindStringSubmatch(normalized); m != nil {
		lat, latErr := strconv.ParseFloat(m[1], 64)
		lng, lngErr := strconv.ParseFloat(m[2], 64)
		if latErr == nil && lngErr == nil {
			body.LocationBias = &locationBias{
				Circle: circle{Center: latLng{Latitude: lat, Longitude: lng}, Radius: 500.0},
			}
		}
	}

	place := s.searchPlace(ctx, body, query)
	if place == nil {
		return domain.ItemData{Title: query}
	}

	item := domain.ItemData{Title: query}
	if place.DisplayName.Text != "" {
		item.Title = place.DisplayName.Text
	}
	if place.FormattedAddress != "" {
		item.Creator = cleanAddress(place.FormattedAddress)
	}
	if len(place.Photos) > 0 && place.Photos[0].Name != "" {
		item.CoverImageURL = fmt.Sprintf("https://places.googleapis.com/v1/%s/media?maxHeightPx=800&maxWidthPx=800&key=%s",
			place.Photos[0].Name, s.placesAPIKey)
	}

	return item
}

func (s *Scraper) searchPlace(ctx context.Context, body placesSearchRequest, query string) *placeResult {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.placesSearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.placesAPIKey)
	req.Header.Set("X-Goog-FieldMask", "places.displayName,places.formattedAddress,places.photos")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("Places search failed", "query", query, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("Places search returned non-OK status",
			"query", query,
			"status_code", resp.StatusCode,
		)
		return nil
	}

	var result placesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil
	}
	if len(result.Places) == 0 {
		return nil
	}
	return &result.Places[0]
}

// cleanAddress drops the province/state + postal-code segment:
// "465 Parkdale Ave, Ottawa, ON K1Y 1H5, Canada" → "465 Parkdale Ave, Ottawa, Canada"
func cleanAddress(formatted string) string {
	parts := strings.Split(formatted, ", ")
	if len(parts) >= 4 {
		parts = append(parts[:len(parts)-2], parts[len(parts)-1])
	}
	return strings.Join(parts, ", ")
}
