package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carcheck/carcheck-backend/services"
	"github.com/carcheck/carcheck-backend/shared"
)

func TestCacheCleanupJobRemovesExpiredEntries(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cache := services.NewCacheService(time.Hour, 10).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "vehicle:ABC123", "short", time.Minute))
	require.NoError(t, cache.Set(ctx, "vehicle:DEF456", "long", time.Hour))

	now = now.Add(2 * time.Minute)
	job := NewCacheCleanupJob(cache)
	assert.Equal(t, 1, job.Run())
	assert.Equal(t, 1, cache.Size())
	assert.Equal(t, 0, job.Run())
}

func TestMetricsReportJobToleratesMissingSources(t *testing.T) {
	job := &MetricsReportJob{Search: shared.NewServiceMetrics("test")}
	assert.NotPanics(t, job.Run)
}
