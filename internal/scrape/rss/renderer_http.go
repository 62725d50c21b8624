package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PlainRenderer fetches feed documents over plain HTTP, for feeds that do
// not require JavaScript. Used when headless rendering is disabled.
type PlainRenderer struct {
	client    *http.Client
	userAgent string
}

// NewPlainRenderer builds a PlainRenderer.
func NewPlainRenderer(userAgent string, timeout time.Duration) *PlainRenderer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PlainRenderer{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Render performs a GET and returns the response body.
func (r *PlainRenderer) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}
