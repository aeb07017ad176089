package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cacheTTL bounds staleness if an invalidation is ever missed; writes
// always invalidate explicitly, so this is a safety net, not the primary
// freshness mechanism.
const cacheTTL = 30 * time.Second

// Cache wraps Gateway.GetGameStatus with a Redis read-through layer keyed
// by player key, invalidated on every successful write. Grounded on the
// teacher's adapters.AdapterRedis / repo.GameRepository Redis usage,
// repurposed here for the game blob it is actually suited to cache.
type Cache struct {
	gateway *Gateway
	redis   *redis.Client
	log     *zap.SugaredLogger
}

func NewCache(gateway *Gateway, redisClient *redis.Client, log *zap.SugaredLogger) *Cache {
	return &Cache{gateway: gateway, redis: redisClient, log: log}
}

type cachedStatus struct {
	Data       []byte  `json:"data"`
	TimePlayed float64 `json:"time_played"`
	Version    int     `json:"version"`
}

// GetGameStatus serves from Redis when present, otherwise falls through to
// the gateway and populates the cache.
func (c *Cache) GetGameStatus(ctx context.Context, key string) (GameStatus, error) {
	if raw, err := c.redis.Get(ctx, cacheKey(key)).Bytes(); err == nil {
		var cs cachedStatus
		if jsonErr := json.Unmarshal(raw, &cs); jsonErr == nil {
			return GameStatus(cs), nil
		}
	}

	status, err := c.gateway.GetGameStatus(ctx, key)
	if err != nil {
		return GameStatus{}, err
	}
	c.put(ctx, key, status)
	return status, nil
}

// Invalidate drops the cached entry for key; called after every successful
// WriteGame so the next read always observes the fresh version.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if err := c.redis.Del(ctx, cacheKey(key)).Err(); err != nil {
		c.log.Warnw("cache: invalidate failed", "key", key, "error", err)
	}
}

func (c *Cache) put(ctx context.Context, key string, status GameStatus) {
	raw, err := json.Marshal(cachedStatus(status))
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(key), raw, cacheTTL).Err(); err != nil {
		c.log.Warnw("cache: set failed", "key", key, "error", err)
	}
}

func cacheKey(key string) string {
	return "game_status:" + key
}

// DirectCache reads straight through to the Gateway, for deployments that
// run without REDIS_URL configured. Invalidate is a no-op since there is
// nothing cached to drop.
type DirectCache struct {
	gateway *Gateway
}

func NewDirectCache(gateway *Gateway) *DirectCache {
	return &DirectCache{gateway: gateway}
}

func (c *DirectCache) GetGameStatus(ctx context.Context, key string) (GameStatus, error) {
	return c.gateway.GetGameStatus(ctx, key)
}

func (c *DirectCache) Invalidate(ctx context.Context, key string) {}
