// Package cache holds storage read caches. Entries expire after a TTL and the
// whole cache is purged after every write, so readers never observe stale
// records for longer than a single request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/config"
)

const KeyPrefix = "asthma:"

type Cache interface {
	// Get decodes the entry stored under key into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Purge invalidates every entry
	Purge(ctx context.Context) error
}

// New returns a redis backed cache when a redis address is configured and an in-memory one otherwise
func New(cfg *config.Config, lifecycle fx.Lifecycle, logger *zap.SugaredLogger) (Cache, error) {
	if cfg.RedisAddress == "" {
		logger.Infow("using in-memory cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
		return NewLRU(cfg.CacheSize, cfg.CacheTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	logger.Infow("using redis cache", "address", cfg.RedisAddress, "ttl", cfg.CacheTTL)
	return NewRedis(client, KeyPrefix, cfg.CacheTTL), nil
}

// Fetch returns the cached value for key or loads and caches it. Cache failures degrade to a miss.
func Fetch[T any](ctx context.Context, c Cache, key string, load func() (T, error)) (T, error) {
	var cached T
	if found, err := c.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	_ = c.Set(ctx, key, value)
	return value, nil
}

// Key joins the parts of a cache key
func Key(parts ...any) string {
	s := make([]string, 0, len(parts))
	for _, p := range parts {
		s = append(s, fmt.Sprint(p))
	}
	return strings.Join(s, ":")
}

func encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func decode(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
