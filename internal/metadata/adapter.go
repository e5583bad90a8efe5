package metadata

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vmunix/codarr/internal/source"
)

// DefaultTTL is how long a resolved record is reused.
const DefaultTTL = 30 * 24 * time.Hour

// CachingAdapter wraps a source adapter and serves repeated queries from the
// cache. Only successful lookups are cached; failures always reach the source.
type CachingAdapter struct {
	source.Adapter
	cache *Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachingAdapter decorates next. A non-positive ttl uses DefaultTTL.
func NewCachingAdapter(next source.Adapter, cache *Cache, ttl time.Duration, log *slog.Logger) *CachingAdapter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachingAdapter{
		Adapter: next,
		cache:   cache,
		ttl:     ttl,
		log:     log.With("component", "metadata_cache", "source", next.Name()),
	}
}

// CacheKey is the key a record for id from the named source is stored under.
func CacheKey(sourceName, id string) string {
	return sourceName + ":" + id
}

// Hosts forwards to the wrapped adapter so URL inference still works.
func (c *CachingAdapter) Hosts() []string {
	if hm, ok := c.Adapter.(source.HostMatcher); ok {
		return hm.Hosts()
	}
	return nil
}

// Query returns a cached record when present, otherwise queries the source.
func (c *CachingAdapter) Query(ctx context.Context, id string) (*source.Record, error) {
	key := CacheKey(c.Name(), id)

	if data, ok := c.cache.Get(ctx, key); ok {
		var rec source.Record
		if err := json.Unmarshal(data, &rec); err == nil && rec.Valid() {
			c.log.Debug("cache hit", "id", id)
			return &rec, nil
		}
		// Undecodable entries are treated as a miss and overwritten below.
		c.log.Warn("failed to decode cached record", "id", id)
	}

	rec, err := c.Adapter.Query(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Valid() {
		return rec, nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		c.log.Warn("failed to encode record for cache", "id", id, "error", err)
		return rec, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("failed to cache record", "id", id, "error", err)
	}
	return rec, nil
}
