package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carcheck/carcheck-backend/models"
)

// MemoryVehicleStore keeps vehicles in process. Used when no database is
// configured and in tests.
type MemoryVehicleStore struct {
	mu             sync.RWMutex
	byID           map[uuid.UUID]models.VehicleIdentity
	byRegistration map[string]uuid.UUID
}

func NewMemoryVehicleStore() *MemoryVehicleStore {
	return &MemoryVehicleStore{
		byID:           make(map[uuid.UUID]models.VehicleIdentity),
		byRegistration: make(map[string]uuid.UUID),
	}
}

func (s *MemoryVehicleStore) GetByID(_ context.Context, id uuid.UUID) (*models.VehicleIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &vehicle, nil
}

func (s *MemoryVehicleStore) GetByRegistration(_ context.Context, registration string) (*models.VehicleIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRegistration[models.NormalizeRegistration(registration)]
	if !ok {
		return nil, nil
	}
	vehicle := s.byID[id]
	return &vehicle, nil
}

// Add stores vehicle unless the registration is already present, in which
// case the existing row wins.
func (s *MemoryVehicleStore) Add(_ context.Context, vehicle *models.VehicleIdentity) (*models.VehicleIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.byRegistration[vehicle.RegistrationNumber]; exists {
		existing := s.byID[id]
		return &existing, nil
	}

	stored := *vehicle
	s.byID[stored.ID] = stored
	s.byRegistration[stored.RegistrationNumber] = stored.ID
	return &stored, nil
}

func (s *MemoryVehicleStore) UpdateMileage(_ context.Context, id uuid.UUID, mileage int, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("update_vehicle_mileage: vehicle %s: %w", id, sql.ErrNoRows)
	}
	if err := vehicle.UpdateMileage(mileage, updatedAt); err != nil {
		return err
	}
	s.byID[id] = vehicle
	return nil
}

// Remove deletes a vehicle; history entries pointing at it are kept.
func (s *MemoryVehicleStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vehicle, ok := s.byID[id]; ok {
		delete(s.byRegistration, vehicle.RegistrationNumber)
		delete(s.byID, id)
	}
}

func (s *MemoryVehicleStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

type MemoryAnalysisStore struct {
	mu        sync.RWMutex
	byVehicle map[uuid.UUID][]models.AnalysisResult
}

func NewMemoryAnalysisStore() *MemoryAnalysisStore {
	return &MemoryAnalysisStore{byVehicle: make(map[uuid.UUID][]models.AnalysisResult)}
}

func (s *MemoryAnalysisStore) GetLatestByVehicleID(_ context.Context, vehicleID uuid.UUID) (*models.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.AnalysisResult
	for i := range s.byVehicle[vehicleID] {
		result := s.byVehicle[vehicleID][i]
		if latest == nil || result.CreatedAt.After(latest.CreatedAt) {
			latest = &result
		}
	}
	return latest, nil
}

func (s *MemoryAnalysisStore) Add(_ context.Context, result *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byVehicle[result.VehicleID] = append(s.byVehicle[result.VehicleID], *result)
	return nil
}

func (s *MemoryAnalysisStore) Count(vehicleID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byVehicle[vehicleID])
}

type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]models.SearchHistoryEntry
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{entries: make(map[uuid.UUID]models.SearchHistoryEntry)}
}

func (s *MemoryHistoryStore) Add(_ context.Context, entry *models.SearchHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.ID] = *entry
	return nil
}

func (s *MemoryHistoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.SearchHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryHistoryStore) userEntries(userID uuid.UUID) []models.SearchHistoryEntry {
	var entries []models.SearchHistoryEntry
	for _, entry := range s.entries {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SearchedAt.After(entries[j].SearchedAt)
	})
	return entries
}

func (s *MemoryHistoryStore) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.SearchHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.userEntries(userID)
	if offset >= len(entries) {
		return []models.SearchHistoryEntry{}, nil
	}
	end := min(offset+limit, len(entries))
	return entries[offset:end], nil
}

func (s *MemoryHistoryStore) CountByUserSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, entry := range s.entries {
		if entry.UserID == userID && !entry.SearchedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryHistoryStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *MemoryHistoryStore) DeleteAllByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, entry := range s.entries {
		if entry.UserID == userID {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}
