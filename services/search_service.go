package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/carcheck/carcheck-backend/models"
	"github.com/carcheck/carcheck-backend/shared"
)

const (
	searchServiceName = "CarSearchService"

	vehicleCacheKeyPrefix  = "vehicle:"
	analysisCacheKeyPrefix = "analysis:"

	DefaultCacheTTL    = time.Hour
	DefaultReuseWindow = 24 * time.Hour
)

func vehicleCacheKey(registration string) string {
	return vehicleCacheKeyPrefix + registration
}

func analysisCacheKey(vehicleID uuid.UUID) string {
	return analysisCacheKeyPrefix + vehicleID.String()
}

// CarSearchDependencies wires a CarSearchService. Zero durations fall back to
// one hour of cache TTL and a 24 hour reuse window.
type CarSearchDependencies struct {
	Vehicles    VehicleStore
	Analyses    AnalysisStore
	History     *SearchHistoryService
	Provider    VehicleDataProvider
	Cache       Cache
	Engine      *ScoringEngine
	AuditLogger *AuditLogger
	Breaker     *shared.CircuitBreaker
	Metrics     *shared.ServiceMetrics

	CacheTTL    time.Duration
	ReuseWindow time.Duration
	Now         func() time.Time
}

// CarSearchService resolves registrations to vehicles and vehicles to
// analyses through the cache, store and provider tiers, in that order.
type CarSearchService struct {
	vehicles    VehicleStore
	analyses    AnalysisStore
	history     *SearchHistoryService
	provider    VehicleDataProvider
	cache       Cache
	engine      *ScoringEngine
	auditLogger *AuditLogger
	breaker     *shared.CircuitBreaker
	metrics     *shared.ServiceMetrics
	fetches     singleflight.Group

	cacheTTL    time.Duration
	reuseWindow time.Duration
	now         func() time.Time
}

func NewCarSearchService(deps CarSearchDependencies) *CarSearchService {
	s := &CarSearchService{
		vehicles:    deps.Vehicles,
		analyses:    deps.Analyses,
		history:     deps.History,
		provider:    deps.Provider,
		cache:       deps.Cache,
		engine:      deps.Engine,
		auditLogger: deps.AuditLogger,
		breaker:     deps.Breaker,
		metrics:     deps.Metrics,
		cacheTTL:    deps.CacheTTL,
		reuseWindow: deps.ReuseWindow,
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.reuseWindow <= 0 {
		s.reuseWindow = DefaultReuseWindow
	}
	if s.engine == nil {
		s.engine = NewScoringEngine(s.now)
	}
	if s.auditLogger == nil {
		s.auditLogger = NewAuditLogger(searchServiceName, s.now)
	}
	if s.breaker == nil {
		s.breaker = shared.NewCircuitBreaker("VehicleDataProvider", -1)
	}
	if s.metrics == nil {
		s.metrics = shared.NewServiceMetrics(searchServiceName)
	}

	logrus.WithFields(logrus.Fields{
		"component":    searchServiceName,
		"provider":     s.provider.Name(),
		"cache_ttl":    s.cacheTTL,
		"reuse_window": s.reuseWindow,
	}).Info("Car search service initialized")

	return s
}

func (s *CarSearchService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// ProviderName names the configured vehicle data provider.
func (s *CarSearchService) ProviderName() string {
	return s.provider.Name()
}

// ProviderAvailable reports whether provider calls are currently let through.
func (s *CarSearchService) ProviderAvailable() bool {
	return !s.breaker.IsOpen()
}

// SearchByIdentifier resolves a registration number for userID and records
// the search in the user's history. A store hit returns the stored identity
// without enrichment fields.
func (s *CarSearchService) SearchByIdentifier(ctx context.Context, userID uuid.UUID, registration string) (summary *models.VehicleSummary, err error) {
	start := time.Now()
	defer func() { s.recordOperation("SearchByIdentifier", start, err) }()

	reg, err := models.ParseRegistration(registration)
	if err != nil {
		return nil, shared.NewValidationError(err.Error(), searchServiceName, "SearchByIdentifier", err)
	}

	logger := logrus.WithFields(logrus.Fields{
		"component":    searchServiceName,
		"operation":    "SearchByIdentifier",
		"registration": reg,
	})
	key := vehicleCacheKey(reg)

	summary = s.cachedSummary(ctx, key, logger)
	source := "cache"

	if summary == nil {
		vehicle, err := s.vehicles.GetByRegistration(ctx, reg)
		if err != nil {
			return nil, s.databaseError(err, "SearchByIdentifier")
		}
		if vehicle != nil {
			summary = models.SummaryFromVehicle(vehicle, nil)
			source = "store"
		}
	}

	if summary == nil {
		summary, err = s.resolveFromProvider(ctx, reg, logger)
		if err != nil {
			return nil, err
		}
		source = "provider"
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		logger.WithError(err).Warn("Failed to cache vehicle summary")
	}
	if err := s.history.Record(ctx, userID, summary.VehicleID); err != nil {
		logger.WithError(err).WithField("user_id", userID).Warn("Failed to record search history")
	}

	s.countResolution("search", source)
	logger.WithFields(logrus.Fields{
		"vehicle_id": summary.VehicleID,
		"source":     source,
	}).Debug("Resolved registration")

	return summary, nil
}

func (s *CarSearchService) cachedSummary(ctx context.Context, key string, logger *logrus.Entry) *models.VehicleSummary {
	summary, err := GetCached[models.VehicleSummary](ctx, s.cache, key)
	if err != nil {
		logger.WithError(err).Warn("Vehicle cache read failed, treating as miss")
		return nil
	}
	return summary
}

func (s *CarSearchService) resolveFromProvider(ctx context.Context, reg string, logger *logrus.Entry) (*models.VehicleSummary, error) {
	snapshot, err := s.fetchSnapshot(ctx, reg, "SearchByIdentifier")
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, shared.NewNotFoundError("No vehicle found with this registration number.", searchServiceName, "SearchByIdentifier")
	}

	now := s.now()
	identity := snapshotIdentity(reg, snapshot, now)
	if err := identity.Validate(now); err != nil {
		return nil, shared.NewProviderUnavailableError(
			"Vehicle data provider returned an invalid vehicle.",
			searchServiceName, "SearchByIdentifier", err,
		)
	}

	stored, err := s.vehicles.Add(ctx, identity)
	if err != nil {
		s.auditLogger.LogVehicleCreation(identity, err)
		return nil, s.databaseError(err, "SearchByIdentifier")
	}
	if stored.ID == identity.ID {
		s.auditLogger.LogVehicleCreation(stored, nil)
	} else {
		logger.WithField("vehicle_id", stored.ID).Debug("Registration was stored concurrently, using existing vehicle")
	}

	return models.SummaryFromVehicle(stored, snapshot), nil
}

// AnalyzeByVehicleID scores a vehicle. A persisted result younger than the
// reuse window is returned without its breakdown; otherwise the provider is
// consulted and a new result is persisted.
func (s *CarSearchService) AnalyzeByVehicleID(ctx context.Context, vehicleID uuid.UUID) (analysis *models.VehicleAnalysis, err error) {
	start := time.Now()
	defer func() { s.recordOperation("AnalyzeByVehicleID", start, err) }()

	logger := logrus.WithFields(logrus.Fields{
		"component":  searchServiceName,
		"operation":  "AnalyzeByVehicleID",
		"vehicle_id": vehicleID,
	})
	key := analysisCacheKey(vehicleID)

	cached, err := GetCached[models.VehicleAnalysis](ctx, s.cache, key)
	if err != nil {
		logger.WithError(err).Warn("Analysis cache read failed, treating as miss")
	} else if cached != nil {
		s.countResolution("analysis", "cache")
		return cached, nil
	}

	latest, err := s.analyses.GetLatestByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, s.databaseError(err, "AnalyzeByVehicleID")
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, s.databaseError(err, "AnalyzeByVehicleID")
	}
	if vehicle == nil {
		return nil, shared.NewNotFoundError("Vehicle not found.", searchServiceName, "AnalyzeByVehicleID")
	}

	if latest != nil && latest.IsFresh(s.now(), s.reuseWindow) {
		analysis = reusedAnalysis(latest, vehicle)
		s.cacheAnalysis(ctx, key, analysis, logger)
		s.countResolution("analysis", "store")
		return analysis, nil
	}

	snapshot, err := s.fetchSnapshot(ctx, vehicle.RegistrationNumber, "AnalyzeByVehicleID")
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, shared.NewNotFoundError("Unable to fetch vehicle data for analysis.", searchServiceName, "AnalyzeByVehicleID")
	}

	outcome := s.engine.Analyze(snapshot)
	shared.AnalysisScore.Observe(outcome.Score.InexactFloat64())

	now := s.now()
	s.refreshMileage(ctx, vehicle, snapshot.Mileage, now, logger)

	result, err := models.NewAnalysisResult(vehicleID, outcome.Score, outcome.Recommendation, now)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "INVALID_ANALYSIS", searchServiceName, "AnalyzeByVehicleID", false)
	}
	err = s.analyses.Add(ctx, result)
	s.auditLogger.LogAnalysisPersisted(result, err)
	if err != nil {
		return nil, s.databaseError(err, "AnalyzeByVehicleID")
	}

	analysis = &models.VehicleAnalysis{
		AnalysisID:         result.ID,
		VehicleID:          vehicle.ID,
		RegistrationNumber: vehicle.RegistrationNumber,
		Brand:              vehicle.Brand,
		Model:              vehicle.Model,
		Year:               vehicle.Year,
		Score:              result.Score,
		Recommendation:     result.Recommendation,
		Breakdown:          outcome.Breakdown,
		BreakdownAvailable: true,
		CreatedAt:          result.CreatedAt,
		Details:            models.DetailsFromSnapshot(snapshot),
	}
	s.cacheAnalysis(ctx, key, analysis, logger)
	s.countResolution("analysis", "provider")

	logger.WithFields(logrus.Fields{
		"score":          result.Score.String(),
		"recommendation": result.Recommendation,
	}).Info("Computed fresh vehicle analysis")

	return analysis, nil
}

// reusedAnalysis answers from a persisted result. Only the score and the
// recommendation are durable, so the breakdown is zeroed and details omitted.
func reusedAnalysis(result *models.AnalysisResult, vehicle *models.VehicleIdentity) *models.VehicleAnalysis {
	return &models.VehicleAnalysis{
		AnalysisID:         result.ID,
		VehicleID:          vehicle.ID,
		RegistrationNumber: vehicle.RegistrationNumber,
		Brand:              vehicle.Brand,
		Model:              vehicle.Model,
		Year:               vehicle.Year,
		Score:              result.Score,
		Recommendation:     result.Recommendation,
		BreakdownAvailable: false,
		CreatedAt:          result.CreatedAt,
	}
}

func (s *CarSearchService) cacheAnalysis(ctx context.Context, key string, analysis *models.VehicleAnalysis, logger *logrus.Entry) {
	if err := s.cache.Set(ctx, key, analysis, s.cacheTTL); err != nil {
		logger.WithError(err).Warn("Failed to cache analysis")
	}
}

// refreshMileage stores a newer odometer reading. Failures are logged and do
// not fail the analysis.
func (s *CarSearchService) refreshMileage(ctx context.Context, vehicle *models.VehicleIdentity, mileage int, now time.Time, logger *logrus.Entry) {
	if mileage <= 0 || mileage == vehicle.Mileage {
		return
	}

	before := vehicle.Mileage
	err := vehicle.UpdateMileage(mileage, now)
	if err == nil {
		err = s.vehicles.UpdateMileage(ctx, vehicle.ID, mileage, now)
	}
	s.auditLogger.LogMileageUpdate(vehicle.ID, before, mileage, err)
	if err != nil {
		logger.WithError(err).Warn("Failed to refresh vehicle mileage")
		return
	}

	// The cached summary still carries the old mileage.
	if err := s.cache.Delete(ctx, vehicleCacheKey(vehicle.RegistrationNumber)); err != nil {
		logger.WithError(err).Debug("Failed to drop cached vehicle summary")
	}
}

// fetchSnapshot calls the provider through the circuit breaker. Concurrent
// calls for the same registration share one provider request. The shared
// request is detached from any single caller's cancellation; each caller stops
// waiting when its own ctx ends and the adapters' timeouts bound the request.
func (s *CarSearchService) fetchSnapshot(ctx context.Context, registration, operation string) (*models.RawSignalSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fetchCtx := context.WithoutCancel(ctx)
	results := s.fetches.DoChan(registration, func() (any, error) {
		var snapshot *models.RawSignalSnapshot
		err := s.breaker.Execute("FetchByRegistration", func() error {
			var fetchErr error
			snapshot, fetchErr = s.provider.FetchByRegistration(fetchCtx, registration)
			return fetchErr
		}, countsAsProviderFailure)
		s.countProviderOutcome(snapshot, err)
		return snapshot, err
	})

	var result singleflight.Result
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if result.Shared {
		s.metrics.IncrementCounter("provider_fetch_shared")
	}

	value, err := result.Val, result.Err
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, shared.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, shared.NewProviderUnavailableError(
			"Vehicle data provider is unavailable.",
			searchServiceName, operation,
			fmt.Errorf("fetch %s: %w", registration, err),
		)
	}

	snapshot, _ := value.(*models.RawSignalSnapshot)
	return snapshot, nil
}

func countsAsProviderFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func (s *CarSearchService) countProviderOutcome(snapshot *models.RawSignalSnapshot, err error) {
	outcome := providerOutcomeFound
	switch {
	case err != nil:
		outcome = providerOutcomeError
	case snapshot == nil:
		outcome = providerOutcomeNotFound
	}
	shared.ProviderRequestsTotal.WithLabelValues(s.provider.Name(), outcome).Inc()
	s.metrics.IncrementCounter("provider_" + outcome)
}

func (s *CarSearchService) countResolution(operation, source string) {
	shared.ResolutionSourceTotal.WithLabelValues(operation, source).Inc()
	s.metrics.IncrementCounter(operation + "_" + source)
}

func (s *CarSearchService) recordOperation(operation string, start time.Time, err error) {
	success := err == nil || errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation)
	s.metrics.RecordOperation(operation, success, time.Since(start))

	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		serviceErr.LogError()
	}
}

func (s *CarSearchService) databaseError(err error, operation string) error {
	return shared.WrapError(err, shared.ErrorCategoryDatabase, "DATABASE_ERROR", searchServiceName, operation, shared.IsRetryableError(err))
}

// snapshotIdentity builds the identity to persist for a provider snapshot.
// The requested registration wins over the provider's spelling so cache keys
// and store lookups agree.
func snapshotIdentity(registration string, snapshot *models.RawSignalSnapshot, now time.Time) *models.VehicleIdentity {
	return &models.VehicleIdentity{
		ID:                 uuid.New(),
		RegistrationNumber: registration,
		Brand:              strings.TrimSpace(snapshot.Brand),
		Model:              strings.TrimSpace(snapshot.Model),
		Year:               snapshot.Year,
		Mileage:            snapshot.Mileage,
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
}
