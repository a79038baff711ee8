// Package tablecache memoizes parsed weather files. Repeated ingest requests
// for an unchanged file skip parsing and dew-point derivation.
package tablecache

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// Source reads a typical-year file.
type Source interface {
	Read(ctx context.Context, station, path string, hint domain.Format) (domain.Table, error)
}

// Observer is told whether each lookup hit the cache.
type Observer interface {
	ObserveCache(hit bool)
}

// Cache wraps a Source with an in-memory LRU cache keyed by file identity.
// A file that changes size or modification time is parsed again.
type Cache struct {
	inner    Source
	cache    *lruCache[domain.Table]
	observer Observer
}

// New creates a cache decorator around src holding at most maxEntries
// tables. observer may be nil.
func New(src Source, maxEntries int, observer Observer) *Cache {
	return &Cache{
		inner:    src,
		cache:    newLRUCache[domain.Table](maxEntries),
		observer: observer,
	}
}

func (c *Cache) Read(ctx context.Context, station, path string, hint domain.Format) (domain.Table, error) {
	fi, err := os.Stat(path)
	if err != nil {
		// Let the source report unreadable files in its own terms.
		return c.inner.Read(ctx, station, path, hint)
	}

	key := fmt.Sprintf("%s|%s|%d|%d|%s", station, path, fi.Size(), fi.ModTime().UnixNano(), hint)
	if t, ok := c.cache.get(key); ok {
		c.observe(true)
		return t, nil
	}
	c.observe(false)

	t, err := c.inner.Read(ctx, station, path, hint)
	if err != nil {
		return t, err
	}
	// Failures are never cached so a fixed file is picked up on retry.
	if !t.Empty() {
		c.cache.put(key, t)
	}
	return t, nil
}

// Len returns the number of cached tables.
func (c *Cache) Len() int { return c.cache.len() }

func (c *Cache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache(hit)
	}
}
