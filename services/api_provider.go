package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/models"
	"github.com/carcheck/carcheck-backend/shared"
)

const maxAPIResponseBytes = 4 << 20

// APIProvider reads vehicle snapshots from a JSON HTTP API exposing
// GET {base}/vehicles/{registration}. The response body uses the
// RawSignalSnapshot JSON shape; 404 means the registration is unknown.
type APIProvider struct {
	baseURL            string
	apiKey             string
	httpClient         *http.Client
	requestRateLimiter *shared.HTTPRequestRateLimiter
	retryPolicy        shared.RetryPolicy
	httpMetrics        *shared.HTTPMetrics
}

func NewAPIProvider(config shared.ProviderConfig, clientFactory *shared.HTTPClientFactory) *APIProvider {
	if clientFactory == nil {
		clientFactory = shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	}

	provider := &APIProvider{
		baseURL:            strings.TrimRight(config.BaseURL, "/"),
		apiKey:             config.APIKey,
		httpClient:         clientFactory.Client(config.HTTPRequestTimeout),
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		retryPolicy: shared.RetryPolicy{
			MaxRetries: config.MaxRetryAttempts,
			BaseDelay:  500 * time.Millisecond,
		},
		httpMetrics: shared.NewHTTPMetrics(),
	}

	logrus.WithFields(logrus.Fields{
		"component":    "APIProvider",
		"base_url":     provider.baseURL,
		"http_timeout": config.HTTPRequestTimeout,
		"max_retries":  config.MaxRetryAttempts,
	}).Info("Vehicle API provider initialized")

	return provider
}

func (p *APIProvider) Name() string { return "api" }

// Metrics exposes the outbound request counters.
func (p *APIProvider) Metrics() *shared.HTTPMetrics { return p.httpMetrics }

func (p *APIProvider) FetchByRegistration(ctx context.Context, registration string) (*models.RawSignalSnapshot, error) {
	normalized := models.NormalizeRegistration(registration)
	endpoint := fmt.Sprintf("%s/vehicles/%s", p.baseURL, url.PathEscape(normalized))

	if err := p.requestRateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	response, err := shared.ExecuteWithRetry(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		request.Header.Set("Accept", "application/json")
		if p.apiKey != "" {
			request.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return request, nil
	}, p.retryPolicy, p.httpMetrics)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from vehicle API: %w", normalized, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read vehicle API response: %w", err)
	}

	var snapshot models.RawSignalSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("decode vehicle API response: %w", err)
	}
	if snapshot.RegistrationNumber == "" {
		snapshot.RegistrationNumber = normalized
	}
	snapshot.RegistrationNumber = models.NormalizeRegistration(snapshot.RegistrationNumber)

	logrus.WithFields(logrus.Fields{
		"component":    "APIProvider",
		"registration": normalized,
		"brand":        snapshot.Brand,
		"model":        snapshot.Model,
	}).Debug("Fetched vehicle snapshot")

	return &snapshot, nil
}
