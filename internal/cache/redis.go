package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Redis is a get-or-compute store shared between service instances.
type Redis struct {
	client *redis.Client
	prefix string
	group  singleflight.Group
}

// NewRedis creates a Redis-backed cache. Keys are stored under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Key returns the storage key for key.
func (r *Redis) Key(key string) string {
	return r.prefix + key
}

// GetOrCompute implements the same contract as Memory.GetOrCompute.
func (r *Redis) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	storageKey := r.Key(key)

	value, err := r.client.Get(ctx, storageKey).Bytes()
	if err == nil {
		return value, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	v, err, _ := r.group.Do(storageKey, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if value != nil {
			if err := r.client.Set(ctx, storageKey, value, ttl).Err(); err != nil {
				return nil, fmt.Errorf("cache set %s: %w", key, err)
			}
		}
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	out, _ := v.([]byte)
	return out, false, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
