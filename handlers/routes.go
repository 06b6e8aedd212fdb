package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Car     *CarHandler
	History *HistoryHandler
	Cache   *CacheHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

// NewApp builds the fiber app with middleware and all routes.
// accessLog is off in tests.
func NewApp(h Handlers, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "carcheck-backend",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	app.Get("/health", h.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	cars := api.Group("/cars", RequireUser())
	cars.Post("/search", h.Car.Search)
	cars.Get("/:id/analysis", h.Car.Analyze)

	history := api.Group("/history", RequireUser())
	history.Get("/", h.History.List)
	history.Delete("/:id", h.History.Delete)
	history.Delete("/", h.History.Clear)

	// TODO: restrict to operator credentials once the gateway forwards roles.
	admin := api.Group("/admin")
	admin.Get("/cache/stats", h.Cache.Stats)
	admin.Delete("/cache", h.Cache.Clear)
	admin.Post("/cache/cleanup", h.Cache.Cleanup)
	admin.Get("/metrics", h.Admin.Metrics)

	return app
}

// errorHandler keeps fiber's own errors (404 route, 405) inside the envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return respondMessage(c, fiberErr.Code, fiberErr.Message)
	}
	return respondError(c, err)
}
