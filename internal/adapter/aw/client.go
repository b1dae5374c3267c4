// Package aw fetches raw reach documents from the American Whitewater API.
package aw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/reach-data-etl/internal/observability"
)

// DefaultBaseURL is the public AW site root.
const DefaultBaseURL = "https://www.americanwhitewater.org"

// userAgent is a browser UA string. The AW endpoint serves an HTML error
// page to clients it identifies as scripts.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxAttempts bounds the retry loop per document. The endpoint intermittently
// returns HTML rate-limit pages that clear after a short pause.
const maxAttempts = 10

// Fetcher retrieves the raw JSON document for one reach.
type Fetcher interface {
	Fetch(ctx context.Context, reachID int64) ([]byte, error)
}

// Client implements Fetcher against the AW detail endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics

	// retryDelay is the pause between attempts; shortened in tests.
	retryDelay time.Duration
}

// NewClient creates an AW API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
		retryDelay: 2 * time.Second,
	}
}

// Fetch retrieves the detail document for one reach, retrying through the
// endpoint's intermittent HTML error responses. The returned bytes are the
// raw response; normalization decides whether the document is usable.
func (c *Client) Fetch(ctx context.Context, reachID int64) ([]byte, error) {
	u := fmt.Sprintf("%s/content/River/detail/id/%d/.json", c.baseURL, reachID)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if !sleepWithContext(ctx, c.retryDelay) {
				return nil, ctx.Err()
			}
		}

		body, err := c.doRequest(ctx, u)
		if err == nil {
			c.metrics.FetchRequests.WithLabelValues("success").Inc()
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		c.logger.Warn("fetch attempt failed", "reach_id", reachID, "attempt", attempt, "error", err)
	}

	c.metrics.FetchRequests.WithLabelValues("error").Inc()
	return nil, fmt.Errorf("fetch reach %d after %d attempts: %w", reachID, maxAttempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AW API error: status %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		// The rate limiter answers 200 with an HTML page.
		return nil, fmt.Errorf("response is not JSON (%d bytes)", len(body))
	}
	return body, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
