package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxPageBytes caps how much of a fetched page we parse. Product pages can
// carry megabytes of inline JSON; anything past this is noise.
const maxPageBytes = 4 << 20

// page is the raw material a direct HTML fetch produces: decoded Open
// Graph tags, the parsed document, and the raw markup for regex probing of
// inline JSON blobs that no structured format exposes.
type page struct {
	tags map[string]string
	doc  *goquery.Document
	raw  string
}

// ogTag returns the content of an og:<name> meta tag, or "".
func (p *page) ogTag(name string) string {
	if p.tags == nil {
		return ""
	}
	return p.tags[name]
}

// fetchPage retrieves a URL with a browser User-Agent and extracts its Open
// Graph meta tags. It never fails: network and parse errors degrade to an
// empty page so callers extract whatever fields they can.
func fetchPage(ctx context.Context, client *http.Client, pageURL string) *page {
	empty := &page{tags: map[string]string{}}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return empty
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return empty
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return empty
	}

	return parsePage(string(body))
}

// parsePage builds a page from raw HTML. The html.Parse pass decodes
// entity references (&amp;, &#x27;, numeric escapes) in attribute values,
// so OG tag content comes out as plain text.
func parsePage(raw string) *page {
	p := &page{tags: map[string]string{}, raw: raw}

	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return p
	}

	p.doc = goquery.NewDocumentFromNode(root)
	p.doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		prop, ok := s.Attr("property")
		if !ok {
			prop, _ = s.Attr("name")
		}
		if !strings.HasPrefix(prop, "og:") {
			return
		}
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}
		p.tags[strings.TrimPrefix(prop, "og:")] = content
	})

	return p
}

// titleTag returns the <title> text, whitespace-normalized, or "".
func (p *page) titleTag() string {
	if p.doc == nil {
		return ""
	}
	title := strings.TrimSpace(p.doc.Find("title").First().Text())
	return strings.Join(strings.Fields(title), " ")
}

// ldRecord holds the JSON-LD fields the movie/TV strategies care about.
// director is either a single object or an array of objects, so it stays
// raw until directorNames unpacks it.
type ldRecord struct {
	NumberOfSeasons int             `json:"numberOfSeasons"`
	Director        json.RawMessage `json:"director"`
}

// jsonLD parses the first embedded JSON-LD script block. Returns nil when
// the block is absent or malformed.
func (p *page) jsonLD() *ldRecord {
	if p.doc == nil {
		return nil
	}
	block := p.doc.Find(`script[type="application/ld+json"]`).First().Text()
	if block == "" {
		return nil
	}
	var record ldRecord
	if err := json.Unmarshal([]byte(block), &record); err != nil {
		return nil
	}
	return &record
}

// directorNames unpacks the director field of a JSON-LD record, which may
// be one {"name": ...} object or an array of them.
func directorNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	type person struct {
		Name string `json:"name"`
	}

	var many []person
	if err := json.Unmarshal(raw, &many); err != nil {
		var one person
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		many = []person{one}
	}

	names := make([]string, 0, len(many))
	for _, d := range many {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return names
}
