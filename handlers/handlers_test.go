package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carcheck/carcheck-backend/jobs"
	"github.com/carcheck/carcheck-backend/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testServer struct {
	app   *fiber.App
	cache *services.CacheService
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()

	vehicles := services.NewMemoryVehicleStore()
	audit := services.NewAuditLogger("test", nil)
	history := services.NewSearchHistoryService(services.NewMemoryHistoryStore(), vehicles, audit, nil)
	cache := services.NewCacheService(time.Hour, 100)
	search := services.NewCarSearchService(services.CarSearchDependencies{
		Vehicles:    vehicles,
		Analyses:    services.NewMemoryAnalysisStore(),
		History:     history,
		Provider:    services.NewFixtureProvider(nil),
		Cache:       cache,
		AuditLogger: audit,
	})

	app := NewApp(Handlers{
		Car:     NewCarHandler(search),
		History: NewHistoryHandler(history),
		Cache:   NewCacheHandler(cache, jobs.NewCacheCleanupJob(cache)),
		Admin:   NewAdminHandler(search, nil, nil),
		Health:  NewHealthHandler(search, checks),
	}, false)
	return &testServer{app: app, cache: cache}
}

func (s *testServer) do(t *testing.T, method, path string, user uuid.UUID, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		req.Header.Set(UserIDHeader, user.String())
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(raw, &value))
	return value
}

func TestSearchAndAnalyzeFlow(t *testing.T) {
	server := newTestServer(t, nil)
	user := uuid.New()

	status, env := server.do(t, http.MethodPost, "/api/cars/search", user, `{"registration_number":"abc123"}`)
	require.Equal(t, http.StatusOK, status, env.Error)
	require.True(t, env.Success)

	summary := decode[struct {
		VehicleID          uuid.UUID `json:"vehicle_id"`
		RegistrationNumber string    `json:"registration_number"`
		Brand              string    `json:"brand"`
		FuelType           *string   `json:"fuel_type"`
	}](t, env.Data)
	assert.Equal(t, "ABC123", summary.RegistrationNumber)
	assert.Equal(t, "Volvo", summary.Brand)
	assert.NotNil(t, summary.FuelType)

	status, env = server.do(t, http.MethodGet, "/api/cars/"+summary.VehicleID.String()+"/analysis", user, "")
	require.Equal(t, http.StatusOK, status, env.Error)

	analysis := decode[struct {
		Score              json.Number            `json:"score"`
		Recommendation     string                 `json:"recommendation"`
		BreakdownAvailable bool                   `json:"breakdown_available"`
		Breakdown          map[string]json.Number `json:"breakdown"`
		Details            map[string]any         `json:"details"`
	}](t, env.Data)
	assert.NotEmpty(t, analysis.Score.String())
	assert.NotEmpty(t, analysis.Recommendation)
	assert.True(t, analysis.BreakdownAvailable)
	assert.Len(t, analysis.Breakdown, 12)
	assert.NotNil(t, analysis.Details)

	status, env = server.do(t, http.MethodGet, "/api/history", user, "")
	require.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Items []struct {
			ID                 uuid.UUID `json:"id"`
			RegistrationNumber *string   `json:"registration_number"`
		} `json:"items"`
		TodayCount int `json:"today_count"`
	}](t, env.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ABC123", *page.Items[0].RegistrationNumber)
	assert.Equal(t, 1, page.TodayCount)
}

func TestSearchErrors(t *testing.T) {
	server := newTestServer(t, nil)
	user := uuid.New()

	tests := []struct {
		name   string
		user   uuid.UUID
		body   string
		status int
	}{
		{"missing user", uuid.Nil, `{"registration_number":"ABC123"}`, http.StatusUnauthorized},
		{"malformed body", user, `{"registration_number":`, http.StatusBadRequest},
		{"empty registration", user, `{"registration_number":"  "}`, http.StatusBadRequest},
		{"invalid registration", user, `{"registration_number":"ABC-123"}`, http.StatusBadRequest},
		{"unknown vehicle", user, `{"registration_number":"ZZZ999"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := server.do(t, http.MethodPost, "/api/cars/search", tt.user, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestSearchNotFoundMessage(t *testing.T) {
	server := newTestServer(t, nil)

	_, env := server.do(t, http.MethodPost, "/api/cars/search", uuid.New(), `{"registration_number":"ZZZ999"}`)
	assert.Equal(t, "No vehicle found with this registration number.", env.Error)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestAnalyzeErrors(t *testing.T) {
	server := newTestServer(t, nil)
	user := uuid.New()

	status, _ := server.do(t, http.MethodGet, "/api/cars/not-a-uuid/analysis", user, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := server.do(t, http.MethodGet, "/api/cars/"+uuid.NewString()+"/analysis", user, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Vehicle not found.", env.Error)
}

func TestHistoryIsScopedToCaller(t *testing.T) {
	server := newTestServer(t, nil)
	owner, other := uuid.New(), uuid.New()

	for _, reg := range []string{"ABC123", "DEF456"} {
		status, _ := server.do(t, http.MethodPost, "/api/cars/search", owner, `{"registration_number":"`+reg+`"}`)
		require.Equal(t, http.StatusOK, status)
	}

	_, env := server.do(t, http.MethodGet, "/api/history?page=1&page_size=1", owner, "")
	page := decode[struct {
		Items []struct {
			ID uuid.UUID `json:"id"`
		} `json:"items"`
		PageSize int `json:"page_size"`
	}](t, env.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.PageSize)
	entryID := page.Items[0].ID

	status, env := server.do(t, http.MethodDelete, "/api/history/"+entryID.String(), other, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Entry not found.", env.Error)

	status, _ = server.do(t, http.MethodDelete, "/api/history/"+entryID.String(), owner, "")
	assert.Equal(t, http.StatusOK, status)

	status, env = server.do(t, http.MethodDelete, "/api/history", owner, "")
	require.Equal(t, http.StatusOK, status)
	cleared := decode[struct {
		Removed int64 `json:"removed"`
	}](t, env.Data)
	assert.Equal(t, int64(1), cleared.Removed)
}

func TestAdminCacheEndpoints(t *testing.T) {
	server := newTestServer(t, nil)

	status, _ := server.do(t, http.MethodPost, "/api/cars/search", uuid.New(), `{"registration_number":"GHI789"}`)
	require.Equal(t, http.StatusOK, status)

	_, env := server.do(t, http.MethodGet, "/api/admin/cache/stats", uuid.Nil, "")
	stats := decode[services.CacheStats](t, env.Data)
	assert.Equal(t, 1, stats.Size)

	status, _ = server.do(t, http.MethodDelete, "/api/admin/cache", uuid.Nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, server.cache.Size())

	status, env = server.do(t, http.MethodGet, "/api/admin/metrics", uuid.Nil, "")
	require.Equal(t, http.StatusOK, status)
	metrics := decode[map[string]any](t, env.Data)
	assert.Equal(t, "fixture", metrics["provider"])
	assert.Equal(t, true, metrics["provider_available"])
}

func TestHealthReportsFailingDependency(t *testing.T) {
	healthy := newTestServer(t, map[string]HealthCheck{
		"cache": func(context.Context) error { return nil },
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := healthy.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	failing := newTestServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("connection refused") },
	})
	resp, err = failing.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status     string                    `json:"status"`
		Components map[string]map[string]any `json:"components"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "down", body.Status)
	assert.Equal(t, "down", body.Components["database"]["status"])
	assert.Equal(t, "fixture", body.Components["provider"]["name"])
}

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	server := newTestServer(t, nil)

	status, env := server.do(t, http.MethodGet, "/api/nope", uuid.Nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}
