package shared

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPRequestRateLimiter spaces outbound requests at least minimumDelay apart.
type HTTPRequestRateLimiter struct {
	minimumDelay time.Duration
	nextSlot     time.Time
	mutex        sync.Mutex
	requestCount int64
}

func NewHTTPRequestRateLimiter(minimumDelay time.Duration) *HTTPRequestRateLimiter {
	return &HTTPRequestRateLimiter{minimumDelay: minimumDelay}
}

// Wait reserves the next free slot and blocks until it arrives or ctx ends.
// A cancelled wait still consumes its slot.
func (limiter *HTTPRequestRateLimiter) Wait(ctx context.Context) error {
	limiter.mutex.Lock()
	now := time.Now()
	slot := limiter.nextSlot
	if slot.Before(now) {
		slot = now
	}
	limiter.nextSlot = slot.Add(limiter.minimumDelay)
	limiter.requestCount++
	count := limiter.requestCount
	limiter.mutex.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}

	logrus.WithFields(logrus.Fields{
		"component":     "HTTPRequestRateLimiter",
		"delay":         delay,
		"request_count": count,
	}).Debug("Waiting for rate limit slot")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (limiter *HTTPRequestRateLimiter) RequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}
