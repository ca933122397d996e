package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptidx/index-engine/internal/metrics"
	"github.com/cryptidx/index-engine/internal/model"
)

// CachedComposer wraps a Composer with a Redis cache of fully composed
// indices. Composition recomputes everything on every read; this layer
// makes that trade-off explicit and keeps it out of the aggregation math.
// The cache key covers the index id and its time bounds, so changing the
// bounds never serves a stale window.
type CachedComposer struct {
	next Composer
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCachedComposer creates a caching wrapper around a composer.
func NewCachedComposer(next Composer, rdb *redis.Client, ttl time.Duration) *CachedComposer {
	return &CachedComposer{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
	}
}

func (c *CachedComposer) ComposeIndex(ctx context.Context, def model.IndexDefinition) (*model.Index, error) {
	key := CacheKey(def)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var idx model.Index
		if json.Unmarshal(data, &idx) == nil {
			metrics.ResultCacheHits.Inc()
			return &idx, nil
		}
	}
	metrics.ResultCacheMisses.Inc()

	idx, err := c.next.ComposeIndex(ctx, def)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(idx); err == nil {
		c.rdb.Set(ctx, key, data, c.ttl)
	}
	return idx, nil
}

// CacheKey builds the cache key for one definition: index id plus its
// explicit time bounds ("-" when unbounded).
func CacheKey(def model.IndexDefinition) string {
	return fmt.Sprintf("index:%s:%s:%s", def.ID, boundLabel(def.StartTime), boundLabel(def.EndTime))
}

func boundLabel(bound *int64) string {
	if bound == nil {
		return "-"
	}
	return strconv.FormatInt(*bound, 10)
}
