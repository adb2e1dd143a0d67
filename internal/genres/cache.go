package genres

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/desertthunder/genrefy/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = 24 * time.Hour

	// SharedResolveTimeout bounds a resolve call that no single caller can cancel.
	SharedResolveTimeout = 2 * time.Minute
)

// ResolveFunc produces the record for a cache miss.
type ResolveFunc func(ctx context.Context) (models.TrackGenreRecord, error)

// Cache memoizes track genre resolutions.
//
// Entries are evicted least recently used once size is reached and expire after ttl.
// Failed resolutions are never stored. Safe for concurrent use.
type Cache struct {
	entries *expirable.LRU[string, models.TrackGenreRecord]
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a snapshot of cache usage.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewCache creates a [Cache]. Non-positive arguments fall back to [DefaultCacheSize] and [DefaultCacheTTL].
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{entries: expirable.NewLRU[string, models.TrackGenreRecord](size, nil, ttl)}
}

// Get returns the stored record for key without resolving.
func (c *Cache) Get(key string) (models.TrackGenreRecord, bool) {
	return c.entries.Get(key)
}

// GetOrResolve returns the record stored under key, or invokes resolve, stores and returns its result.
//
// Concurrent misses for the same key share a single resolve call. The shared call is detached
// from any one caller's cancellation; each caller stops waiting when its own ctx is done.
func (c *Cache) GetOrResolve(ctx context.Context, key string, resolve ResolveFunc) (models.TrackGenreRecord, error) {
	if record, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return record, nil
	}

	if err := ctx.Err(); err != nil {
		return models.TrackGenreRecord{}, err
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if record, ok := c.entries.Get(key); ok {
			c.hits.Add(1)
			return record, nil
		}

		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedResolveTimeout)
		defer cancel()

		c.misses.Add(1)
		record, err := resolve(detached)
		if err != nil {
			return models.TrackGenreRecord{}, err
		}
		c.entries.Add(key, record)
		return record, nil
	})

	select {
	case <-ctx.Done():
		return models.TrackGenreRecord{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.TrackGenreRecord{}, res.Err
		}
		return res.Val.(models.TrackGenreRecord), nil
	}
}

// Purge drops every entry and resets the counters.
func (c *Cache) Purge() {
	c.entries.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats reports hit and miss counts and the current number of entries.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}
