// Package adapters owns the connection-setup boilerplate for the optional
// external stores (Redis cache, Mongo archive), kept separate from
// cmd/main.go's wiring the way the teacher separates AdapterRedis/AdapterMongo
// from its own main.go.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"igoserver/internal/bootstrap"
)

// AdapterRedis owns the optional Redis connection backing the read-through
// game status cache (§4.C). A nil *redis.Client from GetClient means
// REDIS_URL was unset and the caller should fall back to a direct read.
type AdapterRedis struct {
	client *redis.Client
	cfg    *bootstrap.Config
	log    *zap.SugaredLogger
}

func NewAdapterRedis(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterRedis {
	return &AdapterRedis{cfg: cfg, log: log}
}

// Init connects to Redis, or is a no-op if RedisUrl is unset.
func (a *AdapterRedis) Init(ctx context.Context) error {
	if a.cfg.RedisUrl == "" {
		return nil
	}

	a.client = redis.NewClient(&redis.Options{Addr: a.cfg.RedisUrl})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.client.Ping(ctxPing).Err(); err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}

	a.log.Info("Connected to Redis")
	return nil
}

func (a *AdapterRedis) GetClient() *redis.Client {
	return a.client
}

func (a *AdapterRedis) Close(ctx context.Context) error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
