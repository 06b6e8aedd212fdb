package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrTerminalStatus marks an upstream answer that retrying will not change.
var ErrTerminalStatus = errors.New("terminal upstream status")

// HTTPClientFactory hands out pooled clients keyed by timeout.
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[time.Duration]*http.Client
}

func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[time.Duration]*http.Client),
	}
}

// Client returns a shared client for timeout, creating it on first use.
func (f *HTTPClientFactory) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	f.mutex.RLock()
	client, exists := f.clients[timeout]
	f.mutex.RUnlock()
	if exists {
		return client
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	if client, exists = f.clients[timeout]; exists {
		return client
	}

	client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: time.Second,
		},
	}
	f.clients[timeout] = client

	logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"timeout":   timeout,
	}).Debug("Created pooled HTTP client")

	return client
}

// CloseIdle drops idle connections on every client handed out so far.
func (f *HTTPClientFactory) CloseIdle() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for _, client := range f.clients {
		client.CloseIdleConnections()
	}
}

// SetBrowserLikeHeaders makes scraper requests look like a desktop browser.
func SetBrowserLikeHeaders(request *http.Request, acceptHeader string) {
	request.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	request.Header.Set("Accept", acceptHeader)
	request.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")
	request.Header.Set("Cache-Control", "no-cache")
}

// RetryPolicy bounds ExecuteWithRetry.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base << uint(attempt-1)
	return delay + delay/10
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// ExecuteWithRetry sends the request built by newRequest until it gets a 200
// or 404, a non-retryable status, or runs out of attempts. A 404 response is
// returned to the caller as-is so it can map it to "not found". Other 4xx
// answers wrap ErrTerminalStatus. metrics may be nil.
func ExecuteWithRetry(ctx context.Context, client *http.Client, newRequest func(context.Context) (*http.Request, error), policy RetryPolicy, metrics *HTTPMetrics) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			if metrics != nil {
				metrics.RecordRetryAttempt()
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.backoff(attempt)):
			}
		}

		request, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		logger := logrus.WithFields(logrus.Fields{
			"component": "HTTPClient",
			"url":       request.URL.String(),
			"attempt":   attempt + 1,
		})

		start := time.Now()
		response, err := client.Do(request)
		elapsed := time.Since(start)

		if err != nil {
			if metrics != nil {
				metrics.RecordHTTPRequest(false, 0, elapsed)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			logger.WithError(err).Debug("HTTP request failed")
			continue
		}

		ok := response.StatusCode == http.StatusOK || response.StatusCode == http.StatusNotFound
		if metrics != nil {
			metrics.RecordHTTPRequest(ok, response.StatusCode, elapsed)
		}
		if ok {
			return response, nil
		}

		response.Body.Close()
		lastErr = fmt.Errorf("attempt %d: HTTP %d", attempt+1, response.StatusCode)
		if !retryableStatus(response.StatusCode) {
			return nil, fmt.Errorf("%w: %w", ErrTerminalStatus, lastErr)
		}
		logger.WithField("status_code", response.StatusCode).Debug("Retryable HTTP status")
	}

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", policy.MaxRetries+1, lastErr)
}
