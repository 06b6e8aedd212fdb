package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/config"
	"github.com/carcheck/carcheck-backend/database"
	"github.com/carcheck/carcheck-backend/handlers"
	"github.com/carcheck/carcheck-backend/jobs"
	"github.com/carcheck/carcheck-backend/services"
	"github.com/carcheck/carcheck-backend/shared"
)

const (
	shutdownTimeout       = 10 * time.Second
	metricsReportInterval = 15 * time.Minute
)

func main() {
	cfg := config.LoadConfig()
	unified := cfg.Unified()
	shared.ConfigureLogging(unified.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecks := map[string]handlers.HealthCheck{}

	// Stores: Postgres when configured, in-process otherwise.
	var (
		vehicles     services.VehicleStore
		analyses     services.AnalysisStore
		historyStore services.HistoryStore
		dbMetrics    *shared.DatabaseMetrics
	)
	if cfg.DatabaseURL != "" {
		if err := database.ConnectWithConfig(cfg.DatabaseURL, &unified.Database); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to database")
		}
		defer database.Close()

		if err := database.Migrate(ctx, database.DB); err != nil {
			logrus.WithError(err).Fatal("Failed to apply database migrations")
		}

		optimizer := services.NewDatabaseOptimizer(unified.Database, nil)
		dbMetrics = optimizer.Metrics()
		vehicles = services.NewPostgresVehicleStore(database.DB, optimizer)
		analyses = services.NewPostgresAnalysisStore(database.DB, optimizer)
		historyStore = services.NewPostgresHistoryStore(database.DB, optimizer)
		healthChecks["database"] = database.HealthCheck
	} else {
		logrus.Warn("DATABASE_URL not set, using in-memory stores")
		vehicles = services.NewMemoryVehicleStore()
		analyses = services.NewMemoryAnalysisStore()
		historyStore = services.NewMemoryHistoryStore()
	}

	// Cache: Redis when configured, in-process otherwise.
	var (
		cache      services.Cache
		cleanupJob *jobs.CacheCleanupJob
	)
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		redisCache := services.NewRedisCacheService(redisClient, unified.Cache.DefaultTTL)
		cache = redisCache
		healthChecks["cache"] = redisCache.Ping
	} else {
		memoryCache := services.NewCacheService(unified.Cache.DefaultTTL, unified.Cache.MaxSize)
		cache = memoryCache
		cleanupJob = jobs.NewCacheCleanupJob(memoryCache)
	}

	provider, providerIO, extraction := newProvider(unified.Provider)

	auditLogger := services.NewAuditLogger("CarSearchService", nil)
	history := services.NewSearchHistoryService(historyStore, vehicles, auditLogger, nil)
	search := services.NewCarSearchService(services.CarSearchDependencies{
		Vehicles:    vehicles,
		Analyses:    analyses,
		History:     history,
		Provider:    provider,
		Cache:       cache,
		AuditLogger: auditLogger,
		Breaker:     shared.NewCircuitBreaker("VehicleDataProvider", unified.Provider.MaxFailureRate),
		CacheTTL:    unified.Cache.DefaultTTL,
		ReuseWindow: unified.Cache.ReuseWindow,
	})

	if cleanupJob != nil {
		cleanupJob.Start(ctx, unified.Cache.CleanupInterval)
	}
	metricsJob := &jobs.MetricsReportJob{
		Search:     search.Metrics(),
		Database:   dbMetrics,
		ProviderIO: providerIO,
		Extraction: extraction,
	}
	metricsJob.Start(ctx, metricsReportInterval)

	app := handlers.NewApp(handlers.Handlers{
		Car:     handlers.NewCarHandler(search),
		History: handlers.NewHistoryHandler(history),
		Cache:   handlers.NewCacheHandler(cache, cleanupJob),
		Admin:   handlers.NewAdminHandler(search, dbMetrics, providerIO),
		Health:  handlers.NewHealthHandler(search, healthChecks),
	}, true)

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":     cfg.ServerPort,
		"provider": unified.Provider.Mode,
		"database": cfg.DatabaseURL != "",
		"redis":    redisClient != nil,
	}).Info("Server starting")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.WithError(err).Fatal("Server failed to start")
	}
	metricsJob.Run()
}

// newProvider builds the configured vehicle data provider along with the
// metrics it exposes, if any.
func newProvider(providerConfig shared.ProviderConfig) (services.VehicleDataProvider, *shared.HTTPMetrics, *shared.ExtractionMetrics) {
	clientFactory := shared.NewHTTPClientFactory(providerConfig.HTTPRequestTimeout)

	switch providerConfig.Mode {
	case shared.ProviderModeAPI:
		provider := services.NewAPIProvider(providerConfig, clientFactory)
		return provider, provider.Metrics(), nil
	case shared.ProviderModeScrape:
		scraper := services.NewRegistryScraper(providerConfig, clientFactory)
		return scraper, scraper.Metrics(), scraper.ExtractionMetrics()
	default:
		return services.NewFixtureProvider(nil), nil, nil
	}
}
