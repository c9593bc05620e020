package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const scanBatchSize = 100

type Redis struct {
	client     *redis.Client
	prefix     string
	expiration time.Duration
}

var _ Cache = &Redis{}

func NewRedis(client *redis.Client, prefix string, expiration time.Duration) *Redis {
	return &Redis{
		client:     client,
		prefix:     prefix,
		expiration: expiration,
	}
}

func (c *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if err := decode(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.expiration).Err()
}

// Purge deletes the keys under the cache prefix. Other keys in the same database are untouched.
func (c *Redis) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatchSize).Iterator()

	keys := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatchSize {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}
