package product

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stocktrail/stocktrail/internal/platform/constants"
)

// cacheTTL bounds staleness after an out-of-band change (e.g. a manual SQL
// fix); normal writes invalidate explicitly.
const cacheTTL = 5 * time.Minute

// RedisCache is a best-effort read-through cache for single-product lookups.
// Errors are logged and otherwise ignored: the repository stays the source
// of truth.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func cacheKey(id string) string {
	return constants.RedisPrefixProduct + id
}

func (cache *RedisCache) Get(context context.Context, id string) (*Product, bool) {
	payload, err := cache.client.Get(context, cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			cache.logger.Warn("product_cache_get_failed", slog.Any("error", err))
		}
		return nil, false
	}

	p := &Product{}
	if err := json.Unmarshal(payload, p); err != nil {
		cache.logger.Warn("product_cache_decode_failed", slog.Any("error", err))
		return nil, false
	}
	return p, true
}

func (cache *RedisCache) Set(context context.Context, p *Product) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := cache.client.Set(context, cacheKey(p.ID), payload, cacheTTL).Err(); err != nil {
		cache.logger.Warn("product_cache_set_failed", slog.Any("error", err))
	}
}

func (cache *RedisCache) Invalidate(context context.Context, id string) {
	if err := cache.client.Del(context, cacheKey(id)).Err(); err != nil {
		cache.logger.Warn("product_cache_invalidate_failed", slog.Any("error", err))
	}
}
