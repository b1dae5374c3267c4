package aw

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/reach-data-etl/internal/observability"
)

// CachedFetcher wraps a Fetcher with a file cache. Documents land on disk
// named aw_<id>.json with the identifier zero-padded to eight digits, the
// same layout the file source reads, so a download run feeds later ETL runs
// without touching the network again.
type CachedFetcher struct {
	inner   Fetcher
	dir     string
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher. The cache
// directory is created if missing.
func NewCachedFetcher(inner Fetcher, dir string, metrics *observability.Metrics) (*CachedFetcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &CachedFetcher{inner: inner, dir: dir, metrics: metrics}, nil
}

// CacheFileName returns the cache file name for a reach identifier.
func CacheFileName(reachID int64) string {
	return fmt.Sprintf("aw_%08d.json", reachID)
}

func (c *CachedFetcher) Fetch(ctx context.Context, reachID int64) ([]byte, error) {
	path := filepath.Join(c.dir, CacheFileName(reachID))

	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	data, err := c.inner.Fetch(ctx, reachID)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write cache file: %w", err)
	}
	return data, nil
}
