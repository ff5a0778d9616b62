// Package storage re-hosts cover images into an S3-compatible object
// store so items never depend on third-party image URLs staying alive.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxImageBytes = 10 << 20

// Pretend to be a browser; several image CDNs refuse generic clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var extByContentType = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/webp":    "webp",
	"image/gif":     "gif",
	"image/svg+xml": "svg",
}

// Client uploads objects to a bucket over the store's HTTP API and
// builds public URLs for them.
type Client struct {
	baseURL    string
	bucket     string
	token      string
	logger     *slog.Logger
	httpClient *http.Client
}

func NewClient(baseURL, bucket, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bucket:  bucket,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PublicURL returns the public address of a stored object.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, key)
}

// Prefix returns the public URL prefix for this bucket, used to tell
// re-hosted covers apart from remote ones.
func (c *Client) Prefix() string {
	return fmt.Sprintf("%s/object/public/%s/", c.baseURL, c.bucket)
}

// Put uploads the object and returns its public URL. Existing objects
// under the same key are overwritten.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	uploadURL := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, key)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, body)
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(msg))
	}

	return c.PublicURL(key), nil
}

// CopyFromURL downloads an image and re-uploads it under key, picking
// the file extension from the response content type. Returns the public
// URL of the stored copy.
func (c *Client) CopyFromURL(ctx context.Context, imageURL, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	contentType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	contentType = strings.TrimSpace(contentType)
	ext, ok := extByContentType[contentType]
	if !ok {
		contentType = "image/jpeg"
		ext = "jpg"
	}

	limited := io.LimitReader(resp.Body, maxImageBytes)
	return c.Put(ctx, key+"."+ext, contentType, limited)
}
