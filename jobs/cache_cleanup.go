package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/services"
)

// CacheCleanupJob drops expired entries from the in-process cache. Redis
// expires keys itself and needs no sweep.
type CacheCleanupJob struct {
	CacheService *services.CacheService
	running      atomic.Bool
}

func NewCacheCleanupJob(cacheService *services.CacheService) *CacheCleanupJob {
	return &CacheCleanupJob{CacheService: cacheService}
}

// Run sweeps once and returns the number of removed entries. Overlapping runs
// are skipped.
func (j *CacheCleanupJob) Run() int {
	if !j.running.CompareAndSwap(false, true) {
		logrus.WithField("component", "CacheCleanupJob").Warn("Cache cleanup already running, skipping")
		return 0
	}
	defer j.running.Store(false)

	start := time.Now()
	removed := j.CacheService.CleanupExpired()

	logrus.WithFields(logrus.Fields{
		"component": "CacheCleanupJob",
		"removed":   removed,
		"remaining": j.CacheService.Size(),
		"took":      time.Since(start),
	}).Info("Cache cleanup completed")
	return removed
}

// Start runs the sweep every interval until ctx is done.
func (j *CacheCleanupJob) Start(ctx context.Context, interval time.Duration) {
	logrus.WithFields(logrus.Fields{
		"component": "CacheCleanupJob",
		"interval":  interval,
	}).Info("Starting cache cleanup job")

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Run()
			}
		}
	}()
}
