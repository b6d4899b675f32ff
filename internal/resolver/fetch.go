package resolver

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// Fetcher retrieves the raw bytes behind a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FSFetcher reads locators as slash-separated paths from an fs.FS.
type FSFetcher struct {
	FS fs.FS
}

var _ Fetcher = (*FSFetcher)(nil)

// Fetch implements Fetcher.
func (f *FSFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(locator, "/")
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", locator, err)
	}
	return data, nil
}
