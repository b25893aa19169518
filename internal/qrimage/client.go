// Package qrimage talks to the third-party QR image-generation endpoint.
// The service never renders QR codes itself; it hands the endpoint the
// token payload and serves back whatever PNG it returns.
package qrimage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client builds image URLs and fetches the rendered PNG.
type Client struct {
	baseURL    string
	size       int
	httpClient *http.Client
}

// New creates a client for a qrserver-compatible endpoint.
func New(baseURL string, size int) *Client {
	if size <= 0 {
		size = 300
	}
	return &Client{
		baseURL:    baseURL,
		size:       size,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ImageURL returns the public URL rendering the given token. The token is
// passed through unmodified as the encoded payload.
func (c *Client) ImageURL(token string) string {
	q := url.Values{}
	q.Set("data", token)
	q.Set("size", strconv.Itoa(c.size)+"x"+strconv.Itoa(c.size))
	return c.baseURL + "?" + q.Encode()
}

// FetchPNG downloads the rendered image so callers can proxy it without
// exposing the third-party endpoint.
func (c *Client) FetchPNG(ctx context.Context, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ImageURL(token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qr image fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("qr image service error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
