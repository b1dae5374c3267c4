// Package awfile loads previously downloaded AW documents from a directory.
package awfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/reach-data-etl/internal/domain"
)

// pattern matches the cache layout written by the download command.
const pattern = "aw_*.json"

// Source reads every cached document under a directory.
type Source struct {
	dir string
}

// NewSource creates a file source over dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// LoadAll reads all aw_*.json files in name order. Name order is identifier
// order because identifiers are zero-padded, which keeps batch contents
// stable across runs.
func (s *Source) LoadAll(ctx context.Context) ([]domain.RawDocument, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)

	docs := make([]domain.RawDocument, 0, len(matches))
	for _, path := range matches {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, domain.RawDocument{Name: filepath.Base(path), Data: data})
	}
	return docs, nil
}
