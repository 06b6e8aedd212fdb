package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

// RetryConfig holds retry configuration for database operations
type RetryConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DatabaseOptimizer retries transient database failures and records query metrics.
type DatabaseOptimizer struct {
	retryConfig RetryConfig
	metrics     *shared.DatabaseMetrics
}

func NewDatabaseOptimizer(config shared.DatabaseConfig, metrics *shared.DatabaseMetrics) *DatabaseOptimizer {
	if metrics == nil {
		metrics = shared.NewDatabaseMetrics(config.SlowQuery)
	}
	return &DatabaseOptimizer{
		retryConfig: RetryConfig{
			MaxRetries:    config.MaxRetries,
			BaseDelay:     100 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
		},
		metrics: metrics,
	}
}

func (opt *DatabaseOptimizer) Metrics() *shared.DatabaseMetrics {
	return opt.metrics
}

// ExecuteWithRetry runs operation, retrying with exponential backoff while
// the error looks transient.
func (opt *DatabaseOptimizer) ExecuteWithRetry(ctx context.Context, name string, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= opt.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(opt.retryConfig.BaseDelay) *
				math.Pow(opt.retryConfig.BackoffFactor, float64(attempt-1)))
			if delay > opt.retryConfig.MaxDelay {
				delay = opt.retryConfig.MaxDelay
			}

			logrus.WithFields(logrus.Fields{
				"operation": name,
				"attempt":   attempt,
				"delay":     delay,
				"error":     lastErr,
			}).Warn("Retrying database operation")
			opt.metrics.RecordRetry()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		start := time.Now()
		err := operation()
		elapsed := time.Since(start)
		// sql.ErrNoRows is an answer, not a failure.
		opt.metrics.RecordQuery(err == nil || errors.Is(err, sql.ErrNoRows), elapsed)

		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableDBError(err) {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"operation":   name,
		"max_retries": opt.retryConfig.MaxRetries,
		"final_error": lastErr,
	}).Error("Database operation failed after all retries")

	return fmt.Errorf("database operation %s failed after %d retries: %w", name, opt.retryConfig.MaxRetries, lastErr)
}

func isRetryableDBError(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// connection exceptions, serialization failures and deadlocks
		return pqErr.Code.Class() == "08" || pqErr.Code == "40001" || pqErr.Code == "40P01"
	}

	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	return shared.IsRetryableError(err) || strings.Contains(strings.ToLower(err.Error()), "bad connection")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
