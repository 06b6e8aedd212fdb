package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carcheck/carcheck-backend/services"
	"github.com/carcheck/carcheck-backend/shared"
)

// AdminHandler exposes in-process metrics. Database and provider metrics are
// optional and omitted when nil.
type AdminHandler struct {
	Search     *services.CarSearchService
	Database   *shared.DatabaseMetrics
	ProviderIO *shared.HTTPMetrics
}

func NewAdminHandler(search *services.CarSearchService, database *shared.DatabaseMetrics, providerIO *shared.HTTPMetrics) *AdminHandler {
	return &AdminHandler{Search: search, Database: database, ProviderIO: providerIO}
}

func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	metrics := fiber.Map{
		"search":             h.Search.Metrics().Snapshot(),
		"search_success":     h.Search.Metrics().SuccessRate(),
		"provider":           h.Search.ProviderName(),
		"provider_available": h.Search.ProviderAvailable(),
		"timestamp":          time.Now().UTC(),
	}
	if h.Database != nil {
		metrics["database"] = h.Database.Snapshot()
	}
	if h.ProviderIO != nil {
		metrics["provider_http"] = h.ProviderIO.Snapshot()
	}
	return respondData(c, fiber.StatusOK, metrics)
}
