package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/jobs"
	"github.com/carcheck/carcheck-backend/services"
)

type CacheHandler struct {
	Cache services.Cache
	// CleanupJob is nil when the cache expires entries itself.
	CleanupJob *jobs.CacheCleanupJob
}

func NewCacheHandler(cache services.Cache, cleanupJob *jobs.CacheCleanupJob) *CacheHandler {
	return &CacheHandler{Cache: cache, CleanupJob: cleanupJob}
}

func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	return respondData(c, fiber.StatusOK, h.Cache.Stats(c.UserContext()))
}

func (h *CacheHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cache.Clear(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	logrus.WithField("component", "CacheHandler").Info("Cache cleared via admin endpoint")
	return respondData(c, fiber.StatusOK, fiber.Map{"cleared": true})
}

// Cleanup triggers an immediate expired-entry sweep.
func (h *CacheHandler) Cleanup(c *fiber.Ctx) error {
	if h.CleanupJob == nil {
		return respondData(c, fiber.StatusOK, fiber.Map{"removed": 0})
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"removed": h.CleanupJob.Run()})
}
