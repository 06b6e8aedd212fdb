package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/models"
)

// VehicleStore persists vehicle identities. Lookups return nil, nil when
// nothing matches.
type VehicleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.VehicleIdentity, error)
	GetByRegistration(ctx context.Context, registration string) (*models.VehicleIdentity, error)
	// Add inserts vehicle unless its registration number is already taken, and
	// returns the stored row either way.
	Add(ctx context.Context, vehicle *models.VehicleIdentity) (*models.VehicleIdentity, error)
	UpdateMileage(ctx context.Context, id uuid.UUID, mileage int, updatedAt time.Time) error
}

// AnalysisStore persists analysis results. Results are never updated.
type AnalysisStore interface {
	GetLatestByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*models.AnalysisResult, error)
	Add(ctx context.Context, result *models.AnalysisResult) error
}

const vehicleColumns = `id, registration_number, brand, model, year, mileage, created_at, updated_at`

// PostgresVehicleStore is the VehicleStore backed by the vehicles table.
type PostgresVehicleStore struct {
	db        *sql.DB
	optimizer *DatabaseOptimizer
}

func NewPostgresVehicleStore(db *sql.DB, optimizer *DatabaseOptimizer) *PostgresVehicleStore {
	return &PostgresVehicleStore{db: db, optimizer: optimizer}
}

func scanVehicle(row interface{ Scan(...any) error }) (*models.VehicleIdentity, error) {
	var v models.VehicleIdentity
	err := row.Scan(&v.ID, &v.RegistrationNumber, &v.Brand, &v.Model, &v.Year, &v.Mileage, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresVehicleStore) queryOne(ctx context.Context, name, query string, args ...any) (*models.VehicleIdentity, error) {
	var vehicle *models.VehicleIdentity
	err := s.optimizer.ExecuteWithRetry(ctx, name, func() error {
		var scanErr error
		vehicle, scanErr = scanVehicle(s.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return vehicle, nil
}

func (s *PostgresVehicleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.VehicleIdentity, error) {
	return s.queryOne(ctx, "get_vehicle_by_id",
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
}

func (s *PostgresVehicleStore) GetByRegistration(ctx context.Context, registration string) (*models.VehicleIdentity, error) {
	return s.queryOne(ctx, "get_vehicle_by_registration",
		`SELECT `+vehicleColumns+` FROM vehicles WHERE registration_number = $1`,
		models.NormalizeRegistration(registration))
}

// Add upserts on the registration number. The no-op update makes RETURNING
// yield the existing row when another writer got there first.
func (s *PostgresVehicleStore) Add(ctx context.Context, vehicle *models.VehicleIdentity) (*models.VehicleIdentity, error) {
	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (registration_number) DO UPDATE SET
			registration_number = EXCLUDED.registration_number
		RETURNING ` + vehicleColumns

	stored, err := s.queryOne(ctx, "add_vehicle", query,
		vehicle.ID, vehicle.RegistrationNumber, vehicle.Brand, vehicle.Model,
		vehicle.Year, vehicle.Mileage, vehicle.CreatedAt, vehicle.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		logrus.WithFields(logrus.Fields{
			"component":           "PostgresVehicleStore",
			"registration_number": vehicle.RegistrationNumber,
		}).Debug("Vehicle insert raced, loading existing row")
		return s.GetByRegistration(ctx, vehicle.RegistrationNumber)
	}
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("add_vehicle: upsert returned no row")
	}
	return stored, nil
}

func (s *PostgresVehicleStore) UpdateMileage(ctx context.Context, id uuid.UUID, mileage int, updatedAt time.Time) error {
	var affected int64
	err := s.optimizer.ExecuteWithRetry(ctx, "update_vehicle_mileage", func() error {
		result, execErr := s.db.ExecContext(ctx,
			`UPDATE vehicles SET mileage = $2, updated_at = $3 WHERE id = $1`,
			id, mileage, updatedAt)
		if execErr != nil {
			return execErr
		}
		affected, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update_vehicle_mileage: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update_vehicle_mileage: vehicle %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// PostgresAnalysisStore is the AnalysisStore backed by analysis_results.
type PostgresAnalysisStore struct {
	db        *sql.DB
	optimizer *DatabaseOptimizer
}

func NewPostgresAnalysisStore(db *sql.DB, optimizer *DatabaseOptimizer) *PostgresAnalysisStore {
	return &PostgresAnalysisStore{db: db, optimizer: optimizer}
}

func (s *PostgresAnalysisStore) GetLatestByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*models.AnalysisResult, error) {
	query := `
		SELECT id, vehicle_id, score, recommendation, created_at
		FROM analysis_results
		WHERE vehicle_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var result models.AnalysisResult
	err := s.optimizer.ExecuteWithRetry(ctx, "get_latest_analysis", func() error {
		return s.db.QueryRowContext(ctx, query, vehicleID).Scan(
			&result.ID, &result.VehicleID, &result.Score, &result.Recommendation, &result.CreatedAt,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get_latest_analysis: %w", err)
	}
	return &result, nil
}

func (s *PostgresAnalysisStore) Add(ctx context.Context, result *models.AnalysisResult) error {
	err := s.optimizer.ExecuteWithRetry(ctx, "add_analysis", func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO analysis_results (id, vehicle_id, score, recommendation, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			result.ID, result.VehicleID, result.Score, result.Recommendation, result.CreatedAt)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("add_analysis: %w", err)
	}
	return nil
}
