package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/services"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	Checks map[string]HealthCheck
	Search *services.CarSearchService
}

func NewHealthHandler(search *services.CarSearchService, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{Checks: checks, Search: search}
}

// Health reports 200 when every dependency answers and 503 otherwise. An open
// provider breaker degrades the status without failing it.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	components := make(fiber.Map, len(h.Checks)+1)

	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"component":  "HealthHandler",
				"dependency": name,
			}).WithError(err).Warn("Health check failed")
			components[name] = fiber.Map{"status": "down", "error": err.Error()}
			status = "down"
			code = fiber.StatusServiceUnavailable
			continue
		}
		components[name] = fiber.Map{"status": "up"}
	}

	provider := fiber.Map{"name": h.Search.ProviderName(), "status": "up"}
	if !h.Search.ProviderAvailable() {
		provider["status"] = "degraded"
		if status == "ok" {
			status = "degraded"
		}
	}
	components["provider"] = provider

	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().Unix(),
	})
}
