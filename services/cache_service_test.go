package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carcheck/carcheck-backend/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheServiceExpiresEntries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cache := NewCacheService(time.Hour, 10).WithClock(clock.Now)

	summary := models.VehicleSummary{RegistrationNumber: "ABC123", Brand: "Volvo"}
	require.NoError(t, cache.Set(ctx, "vehicle:ABC123", summary, time.Hour))

	got, err := GetCached[models.VehicleSummary](ctx, cache, "vehicle:ABC123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Volvo", got.Brand)

	clock.Advance(59 * time.Minute)
	got, err = GetCached[models.VehicleSummary](ctx, cache, "vehicle:ABC123")
	require.NoError(t, err)
	assert.NotNil(t, got)

	clock.Advance(time.Minute)
	got, err = GetCached[models.VehicleSummary](ctx, cache, "vehicle:ABC123")
	require.NoError(t, err)
	assert.Nil(t, got, "entry must be gone once its TTL has elapsed")

	assert.Equal(t, 1, cache.CleanupExpired())
	assert.Equal(t, 0, cache.Size())
}

func TestCacheServiceReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour, 10)

	summary := &models.VehicleSummary{RegistrationNumber: "ABC123", Mileage: 1000}
	require.NoError(t, cache.Set(ctx, "vehicle:ABC123", summary, 0))
	summary.Mileage = 5

	got, err := GetCached[models.VehicleSummary](ctx, cache, "vehicle:ABC123")
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Mileage)
}

func TestCacheServiceEvictsSoonestExpiringWhenFull(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour, 2)

	require.NoError(t, cache.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "b", 2, time.Hour))
	require.NoError(t, cache.Set(ctx, "c", 3, time.Hour))

	var value int
	found, err := cache.Get(ctx, "a", &value)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = cache.Get(ctx, "c", &value)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, value)

	stats := cache.Stats(ctx)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheServiceOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour, 1)

	require.NoError(t, cache.Set(ctx, "a", 1, 0))
	require.NoError(t, cache.Set(ctx, "a", 2, 0))

	assert.Equal(t, int64(0), cache.Stats(ctx).Evictions)
}

func TestCacheServiceConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "vehicle:" + string(rune('A'+i))
			_ = cache.Set(ctx, key, i, 0)
			var got int
			_, _ = cache.Get(ctx, key, &got)
			_ = cache.Delete(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, cache.Size())
}

func TestRedisCacheService(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis cache tests - TEST_REDIS_URL not set")
	}

	options, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(options)
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping Redis cache tests - ping failed: %v", err)
	}

	cache := NewRedisCacheService(client, time.Hour)
	require.NoError(t, cache.Clear(ctx))

	require.NoError(t, cache.Set(ctx, "vehicle:ABC123", models.VehicleSummary{Brand: "Volvo"}, time.Minute))
	got, err := GetCached[models.VehicleSummary](ctx, cache, "vehicle:ABC123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Volvo", got.Brand)

	ttl, err := client.TTL(ctx, redisKeyPrefix+"vehicle:ABC123").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, cache.Clear(ctx))
	got, err = GetCached[models.VehicleSummary](ctx, cache, "vehicle:ABC123")
	require.NoError(t, err)
	assert.Nil(t, got)
}
