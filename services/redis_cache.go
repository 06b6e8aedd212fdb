package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

const redisKeyPrefix = "carcheck:"

// RedisCacheService is a Cache shared between instances. Expiry is left to Redis.
type RedisCacheService struct {
	client     *redis.Client
	defaultTTL time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

func NewRedisCacheService(client *redis.Client, defaultTTL time.Duration) *RedisCacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &RedisCacheService{client: client, defaultTTL: defaultTTL}
}

func (rc *RedisCacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := rc.client.Get(ctx, redisKeyPrefix+key).Bytes()
	namespace := cacheNamespace(key)
	if errors.Is(err, redis.Nil) {
		rc.misses.Add(1)
		shared.CacheMissesTotal.WithLabelValues(namespace).Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}

	rc.hits.Add(1)
	shared.CacheHitsTotal.WithLabelValues(namespace).Inc()
	return true, nil
}

func (rc *RedisCacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}
	if err := rc.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (rc *RedisCacheService) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, redisKeyPrefix+key).Err()
}

// Clear removes every key this service owns, leaving other tenants of the
// Redis database alone.
func (rc *RedisCacheService) Clear(ctx context.Context) error {
	iter := rc.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := rc.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := rc.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}

func (rc *RedisCacheService) Stats(ctx context.Context) CacheStats {
	size := 0
	iter := rc.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		size++
	}
	if err := iter.Err(); err != nil {
		logrus.WithError(err).WithField("component", "RedisCacheService").Warn("Failed to count cache keys")
	}

	return CacheStats{
		Backend: "redis",
		Size:    size,
		Hits:    rc.hits.Load(),
		Misses:  rc.misses.Load(),
	}
}

func (rc *RedisCacheService) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}
