package scrape

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// browserUserAgent is sent on direct page fetches. Several sources serve
// different (or no) markup to non-browser agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// UnfurlClient talks to a microlink-compatible page-unfurling API: given a
// URL it returns structured page metadata, optionally pre-rendering
// JS-heavy pages or capturing a screenshot.
type UnfurlClient struct {
	baseURL    string
	apiKey     string
	logger     *slog.Logger
	httpClient *http.Client
}

// UnfurlResponse is the unfurl API response envelope.
type UnfurlResponse struct {
	Status string     `json:"status"`
	Data   UnfurlData `json:"data"`
}

// UnfurlData is the metadata bag the unfurl API extracts from a page. All
// fields are optional; consumers interpret only what they need.
type UnfurlData struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       *UnfurlMedia `json:"image"`
	Author      string       `json:"author"`
	Publisher   string       `json:"publisher"`
	Date        string       `json:"date"`
	Lang        string       `json:"lang"`
	URL         string       `json:"url"`
	Logo        *UnfurlMedia `json:"logo"`
	Screenshot  *UnfurlMedia `json:"screenshot"`
}

// UnfurlMedia is an image reference in an unfurl response.
type UnfurlMedia struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewUnfurlClient creates an unfurl API client. The API key is optional;
// without one the service's anonymous rate limits apply.
func NewUnfurlClient(baseURL, apiKey string, logger *slog.Logger) *UnfurlClient {
	return &UnfurlClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch calls the unfurl API for the given URL. Returns nil on any failure:
// timeouts, non-2xx responses, and non-success statuses all degrade to nil
// so callers fall through to their next strategy.
func (c *UnfurlClient) Fetch(ctx context.Context, pageURL string, prerender, screenshot bool) *UnfurlResponse {
	params := url.Values{}
	params.Set("url", pageURL)
	if prerender {
		params.Set("prerender", "true")
	}
	if screenshot {
		params.Set("screenshot", "true")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.logger.Warn("Failed to build unfurl request", "url", pageURL, "error", err)
		return nil
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Unfurl request failed", "url", pageURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Unfurl returned non-OK status",
			"url", pageURL,
			"status_code", resp.StatusCode,
		)
		return nil
	}

	var result UnfurlResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("Failed to decode unfurl response", "url", pageURL, "error", err)
		return nil
	}

	if result.Status != "success" {
		c.logger.Warn("Unfurl reported failure", "url", pageURL, "status", result.Status)
		return nil
	}

	return &result
}
