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
	"github.com/carcheck/carcheck-backend/shared"
)

const (
	DefaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// HistoryStore persists search history entries. Lookups return nil, nil
// when nothing matches.
type HistoryStore interface {
	Add(ctx context.Context, entry *models.SearchHistoryEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SearchHistoryEntry, error)
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SearchHistoryEntry, error)
	CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// SearchHistoryService records and pages through each user's searches.
type SearchHistoryService struct {
	history     HistoryStore
	vehicles    VehicleStore
	auditLogger *AuditLogger
	now         func() time.Time
}

func NewSearchHistoryService(history HistoryStore, vehicles VehicleStore, auditLogger *AuditLogger, now func() time.Time) *SearchHistoryService {
	if now == nil {
		now = time.Now
	}
	return &SearchHistoryService{history: history, vehicles: vehicles, auditLogger: auditLogger, now: now}
}

// Record appends a search for userID.
func (s *SearchHistoryService) Record(ctx context.Context, userID, vehicleID uuid.UUID) error {
	entry, err := models.NewSearchHistoryEntry(userID, vehicleID, s.now())
	if err != nil {
		return shared.NewValidationError(err.Error(), "SearchHistoryService", "Record", err)
	}
	if err := s.history.Add(ctx, entry); err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// List returns one page of the user's history. page is clamped to >= 1 and
// pageSize to 1..100.
func (s *SearchHistoryService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) (*models.SearchHistoryPage, error) {
	page = max(page, 1)
	pageSize = min(max(pageSize, 1), maxHistoryPageSize)

	entries, err := s.history.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}

	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todayCount, err := s.history.CountByUserSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("count today's searches: %w", err)
	}

	items := make([]models.SearchHistoryItem, 0, len(entries))
	for _, entry := range entries {
		item := models.SearchHistoryItem{
			ID:         entry.ID,
			VehicleID:  entry.VehicleID,
			SearchedAt: entry.SearchedAt,
		}

		vehicle, err := s.vehicles.GetByID(ctx, entry.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("load vehicle %s: %w", entry.VehicleID, err)
		}
		if vehicle != nil {
			item.RegistrationNumber = &vehicle.RegistrationNumber
			item.Brand = &vehicle.Brand
			item.Model = &vehicle.Model
			item.Year = &vehicle.Year
		}
		items = append(items, item)
	}

	return &models.SearchHistoryPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TodayCount: todayCount,
	}, nil
}

// Delete removes one of the user's own entries. Entries owned by someone
// else are reported as not found.
func (s *SearchHistoryService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	entry, err := s.history.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("load history entry: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return shared.NewNotFoundError("Entry not found.", "SearchHistoryService", "Delete")
	}

	err = s.history.DeleteByID(ctx, entryID)
	s.auditLogger.LogHistoryDeletion(userID, &entryID, 1, err)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	return nil
}

// Clear removes all of the user's entries and returns how many were removed.
func (s *SearchHistoryService) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	removed, err := s.history.DeleteAllByUser(ctx, userID)
	s.auditLogger.LogHistoryDeletion(userID, nil, removed, err)
	if err != nil {
		return 0, fmt.Errorf("clear search history: %w", err)
	}
	return removed, nil
}

// PostgresHistoryStore is the HistoryStore backed by search_history.
type PostgresHistoryStore struct {
	db        *sql.DB
	optimizer *DatabaseOptimizer
}

func NewPostgresHistoryStore(db *sql.DB, optimizer *DatabaseOptimizer) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db, optimizer: optimizer}
}

func (s *PostgresHistoryStore) Add(ctx context.Context, entry *models.SearchHistoryEntry) error {
	err := s.optimizer.ExecuteWithRetry(ctx, "add_search_history", func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO search_history (id, user_id, vehicle_id, searched_at) VALUES ($1, $2, $3, $4)`,
			entry.ID, entry.UserID, entry.VehicleID, entry.SearchedAt)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("add_search_history: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SearchHistoryEntry, error) {
	var entry models.SearchHistoryEntry
	err := s.optimizer.ExecuteWithRetry(ctx, "get_search_history", func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, user_id, vehicle_id, searched_at FROM search_history WHERE id = $1`, id,
		).Scan(&entry.ID, &entry.UserID, &entry.VehicleID, &entry.SearchedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get_search_history: %w", err)
	}
	return &entry, nil
}

func (s *PostgresHistoryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SearchHistoryEntry, error) {
	var rows *sql.Rows
	err := s.optimizer.ExecuteWithRetry(ctx, "list_search_history", func() error {
		var queryErr error
		rows, queryErr = s.db.QueryContext(ctx,
			`SELECT id, user_id, vehicle_id, searched_at
			 FROM search_history
			 WHERE user_id = $1
			 ORDER BY searched_at DESC
			 LIMIT $2 OFFSET $3`,
			userID, limit, offset)
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("list_search_history: %w", err)
	}
	defer rows.Close()

	entries := []models.SearchHistoryEntry{}
	for rows.Next() {
		var entry models.SearchHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.VehicleID, &entry.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search history rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresHistoryStore) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := s.optimizer.ExecuteWithRetry(ctx, "count_search_history", func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM search_history WHERE user_id = $1 AND searched_at >= $2`,
			userID, since,
		).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count_search_history: %w", err)
	}
	return count, nil
}

func (s *PostgresHistoryStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	err := s.optimizer.ExecuteWithRetry(ctx, "delete_search_history", func() error {
		_, execErr := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE id = $1`, id)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete_search_history: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var removed int64
	err := s.optimizer.ExecuteWithRetry(ctx, "clear_search_history", func() error {
		result, execErr := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID)
		if execErr != nil {
			return execErr
		}
		removed, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear_search_history: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "PostgresHistoryStore",
		"user_id":   userID,
		"removed":   removed,
	}).Debug("Cleared search history")
	return removed, nil
}
