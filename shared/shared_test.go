package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorMatchesSentinelsByCategory(t *testing.T) {
	notFound := NewNotFoundError("Vehicle not found.", "test", "Lookup")
	wrapped := fmt.Errorf("lookup: %w", notFound)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrProviderUnavailable)
	assert.ErrorIs(t, NewProviderUnavailableError("down", "test", "Fetch", nil), ErrProviderUnavailable)
	assert.ErrorIs(t, NewValidationError("bad", "test", "Parse", nil), ErrValidation)
}

func TestServiceErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		status   int
	}{
		{ErrorCategoryNotFound, http.StatusNotFound},
		{ErrorCategoryUpstream, http.StatusBadGateway},
		{ErrorCategoryValidation, http.StatusBadRequest},
		{ErrorCategoryTimeout, http.StatusGatewayTimeout},
		{ErrorCategoryDatabase, http.StatusInternalServerError},
		{ErrorCategoryProcessing, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := NewServiceError(tt.category, "CODE", "message", "test", "op", false, nil)
			assert.Equal(t, tt.status, err.HTTPStatus())
		})
	}
}

func TestWrapErrorKeepsCategoryWithoutMutatingSource(t *testing.T) {
	wrapped := WrapError(ErrNotFound, ErrorCategoryDatabase, "DATABASE_ERROR", "search", "GetByID", false)
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorCategoryNotFound, wrapped.Category)
	assert.Equal(t, "search", wrapped.ServiceName)
	assert.Empty(t, ErrNotFound.ServiceName)

	plain := errors.New("connection refused")
	wrapped = WrapError(plain, ErrorCategoryDatabase, "DATABASE_ERROR", "search", "GetByID", true)
	assert.Equal(t, ErrorCategoryDatabase, wrapped.Category)
	assert.ErrorIs(t, wrapped, plain)
	assert.True(t, wrapped.IsRetryable())

	assert.Nil(t, WrapError(nil, ErrorCategoryDatabase, "X", "s", "o", false))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsRetryableError(NewProviderUnavailableError("down", "s", "o", nil)))
	assert.False(t, IsRetryableError(NewNotFoundError("missing", "s", "o")))
	assert.False(t, IsRetryableError(errors.New("syntax error at or near")))
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	breaker := NewCircuitBreaker("provider", 0.5).WithClock(func() time.Time { return now })
	boom := errors.New("boom")

	for i := 0; i < minimumBreakerSample; i++ {
		err := breaker.Execute("Fetch", func() error { return boom }, nil)
		assert.ErrorIs(t, err, boom)
	}
	require.True(t, breaker.IsOpen())
	assert.InDelta(t, 1.0, breaker.FailureRate(), 1e-9)

	calls := 0
	err := breaker.Execute("Fetch", func() error { calls++; return nil }, nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Zero(t, calls)

	now = now.Add(defaultBreakerCooldown + time.Second)
	require.False(t, breaker.IsOpen())

	for i := 0; i < 3; i++ {
		require.NoError(t, breaker.Execute("Fetch", func() error { return nil }, nil))
	}
	assert.Zero(t, breaker.FailureRate())
}

func TestCircuitBreakerIgnoresUncountedErrors(t *testing.T) {
	breaker := NewCircuitBreaker("provider", 0.1)
	ignored := errors.New("caller went away")

	for i := 0; i < 2*minimumBreakerSample; i++ {
		_ = breaker.Execute("Fetch", func() error { return ignored }, func(err error) bool { return !errors.Is(err, ignored) })
	}
	assert.False(t, breaker.IsOpen())
}

func TestCircuitBreakerDisabled(t *testing.T) {
	breaker := NewCircuitBreaker("provider", -1)
	for i := 0; i < 3*minimumBreakerSample; i++ {
		_ = breaker.Execute("Fetch", func() error { return errors.New("boom") }, nil)
	}
	assert.False(t, breaker.IsOpen())
}

func TestCircuitBreakerUncountedErrorsDoNotCloseIt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	breaker := NewCircuitBreaker("provider", 0.5).WithClock(func() time.Time { return now })
	canceled := errors.New("caller went away")
	countsAsFailure := func(err error) bool { return !errors.Is(err, canceled) }

	for i := 0; i < minimumBreakerSample; i++ {
		_ = breaker.Execute("Fetch", func() error { return errors.New("boom") }, countsAsFailure)
	}
	require.True(t, breaker.IsOpen())

	now = now.Add(defaultBreakerCooldown + time.Second)
	for i := 0; i < 5; i++ {
		_ = breaker.Execute("Fetch", func() error { return canceled }, countsAsFailure)
	}
	assert.InDelta(t, 1.0, breaker.FailureRate(), 1e-9)

	// Still half-open: one real failure restarts the cooldown.
	_ = breaker.Execute("Fetch", func() error { return errors.New("boom") }, countsAsFailure)
	assert.True(t, breaker.IsOpen())
}

func TestCircuitBreakerJudgesRecentCallsOnly(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	breaker := NewCircuitBreaker("provider", 0.5).WithClock(func() time.Time { return now })

	for i := 0; i < 1000; i++ {
		require.NoError(t, breaker.Execute("Fetch", func() error { return nil }, nil))
	}

	now = now.Add(defaultSampleWindow)
	for i := 0; i < minimumBreakerSample; i++ {
		_ = breaker.Execute("Fetch", func() error { return errors.New("boom") }, nil)
	}
	assert.True(t, breaker.IsOpen())
}
