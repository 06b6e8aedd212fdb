package shared

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minimumBreakerSample   = 10
	defaultBreakerCooldown = 30 * time.Second
	// Counters restart every window while the breaker is closed so an outage
	// is judged against recent calls only.
	defaultSampleWindow = time.Minute
)

// CircuitBreaker isolates a flaky upstream. Once the failure rate over the
// current sample exceeds maxFailureRate the breaker opens and calls fail fast
// with ErrProviderUnavailable until the cooldown passes; a run of successful
// half-open calls closes it again.
type CircuitBreaker struct {
	mu                  sync.Mutex
	serviceName         string
	maxFailureRate      float64
	cooldown            time.Duration
	sampleWindow        time.Duration
	sampleStart         time.Time
	open                bool
	openedAt            time.Time
	failureCount        int64
	successCount        int64
	halfOpenAttempts    int
	maxHalfOpenAttempts int
	now                 func() time.Time
}

// NewCircuitBreaker creates a breaker. A negative maxFailureRate disables it.
func NewCircuitBreaker(serviceName string, maxFailureRate float64) *CircuitBreaker {
	return &CircuitBreaker{
		serviceName:         serviceName,
		maxFailureRate:      maxFailureRate,
		cooldown:            defaultBreakerCooldown,
		sampleWindow:        defaultSampleWindow,
		maxHalfOpenAttempts: 3,
		now:                 time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (b *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	b.now = now
	return b
}

// rollSample starts a new sample once the window has passed. Callers hold mu.
func (b *CircuitBreaker) rollSample() {
	if b.open {
		return
	}
	now := b.now()
	if b.sampleStart.IsZero() || now.Sub(b.sampleStart) >= b.sampleWindow {
		b.sampleStart = now
		b.failureCount = 0
		b.successCount = 0
	}
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollSample()
	b.successCount++
	if b.maxFailureRate < 0 || !b.open {
		return
	}

	b.halfOpenAttempts++
	if b.halfOpenAttempts >= b.maxHalfOpenAttempts {
		b.open = false
		b.failureCount = 0
		b.successCount = 0
		b.halfOpenAttempts = 0
		b.sampleStart = b.now()

		logrus.WithFields(logrus.Fields{
			"service_name": b.serviceName,
			"component":    "CircuitBreaker",
		}).Info("Circuit breaker closed after successful half-open attempts")
	}
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollSample()
	b.failureCount++
	if b.maxFailureRate < 0 {
		return
	}

	if b.open {
		// A half-open trial call failed: restart the cooldown.
		b.halfOpenAttempts = 0
		b.openedAt = b.now()
		return
	}

	total := b.failureCount + b.successCount
	if total < minimumBreakerSample {
		return
	}

	rate := float64(b.failureCount) / float64(total)
	if rate > b.maxFailureRate {
		b.open = true
		b.openedAt = b.now()
		b.halfOpenAttempts = 0

		logrus.WithFields(logrus.Fields{
			"service_name":     b.serviceName,
			"component":        "CircuitBreaker",
			"failure_rate":     rate,
			"max_failure_rate": b.maxFailureRate,
			"failure_count":    b.failureCount,
			"success_count":    b.successCount,
		}).Warn("Circuit breaker opened due to high failure rate")
	}
}

// IsOpen reports whether calls are currently rejected. After the cooldown the
// breaker lets trial calls through while staying nominally open.
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxFailureRate < 0 || !b.open {
		return false
	}
	return b.now().Sub(b.openedAt) < b.cooldown
}

// Execute runs fn unless the breaker is open. Only errors for which
// countsAsFailure returns true are recorded as failures; a nil predicate
// counts every error. Uncounted errors are not recorded at all, so they never
// act as half-open trial calls.
func (b *CircuitBreaker) Execute(operation string, fn func() error, countsAsFailure func(error) bool) error {
	if b.IsOpen() {
		logrus.WithFields(logrus.Fields{
			"service_name": b.serviceName,
			"operation":    operation,
			"component":    "CircuitBreaker",
		}).Warn("Circuit breaker is open, rejecting call")

		return NewProviderUnavailableError(
			fmt.Sprintf("%s is temporarily unavailable", b.serviceName),
			b.serviceName, operation, nil,
		)
	}

	err := fn()
	if err != nil {
		if countsAsFailure == nil || countsAsFailure(err) {
			b.recordFailure()
		}
		return err
	}

	b.recordSuccess()
	return nil
}

// FailureRate returns the failure share of the current sample.
func (b *CircuitBreaker) FailureRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := b.failureCount + b.successCount
	if total == 0 {
		return 0
	}
	return float64(b.failureCount) / float64(total)
}
