package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// cachedSource serves series from the fetch cache and falls back to the
// wrapped source on a miss.
type cachedSource struct {
	source contract.SeriesSource
	store  contract.CacheStore
	cfg    *contract.Config
	now    func() time.Time
}

var _ contract.SeriesSource = &cachedSource{} // Compile-time check

// withCache wraps source with the fetch cache when one is configured.
// Local files are never cached.
func withCache(source contract.SeriesSource, cfg *contract.Config, mgr contract.CacheManager) contract.SeriesSource {
	if mgr == nil || cfg.Source == schema.FileSource {
		return source
	}
	store := mgr.GetSeriesStore()
	if store == nil {
		return source
	}
	return &cachedSource{source: source, store: store, cfg: cfg, now: time.Now}
}

// FetchSeries implements the SeriesSource interface.
func (c *cachedSource) FetchSeries(ctx context.Context, topic string, timeframe string) (schema.Series, error) {
	key := c.cacheKey(topic, timeframe)
	if series, ok := c.checkCacheHit(key); ok {
		contract.Log().Debug().Str("topic", topic).Msg("series cache hit")
		return series, nil
	}

	series, err := c.source.FetchSeries(ctx, topic, timeframe)
	if err != nil {
		return series, err
	}

	// Empty results are not cached
	if !series.Empty() {
		if data, err := json.Marshal(series); err == nil {
			if err := c.store.Set(key, data, schema.SeriesCacheVersion, c.now().Unix()); err != nil {
				contract.LogWarn("Failed to cache series for "+topic, err)
			}
		}
	}
	return series, nil
}

// checkCacheHit attempts to retrieve and validate a cached series.
func (c *cachedSource) checkCacheHit(key string) (schema.Series, bool) {
	data, version, ts, err := c.store.Get(key)
	if err != nil || version != schema.SeriesCacheVersion {
		return schema.Series{}, false
	}

	ttl := c.cfg.CacheTTL
	if ttl <= 0 {
		ttl = schema.DefaultCacheTTL
	}
	if c.now().Sub(time.Unix(ts, 0)) > ttl {
		return schema.Series{}, false
	}

	var series schema.Series
	if err := json.Unmarshal(data, &series); err != nil {
		return schema.Series{}, false
	}
	return series, true
}

// cacheKey identifies a request by everything that changes the upstream answer.
func (c *cachedSource) cacheKey(topic, timeframe string) string {
	key := fmt.Sprintf("%s|%s|%s|%s|%d", topic, timeframe, c.cfg.Geo, c.cfg.Language, c.cfg.TZOffset)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
