package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidHistoryEntry = errors.New("invalid search history entry")

// SearchHistoryEntry records one successful search by one user.
type SearchHistoryEntry struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	SearchedAt time.Time `json:"searched_at"`
}

func NewSearchHistoryEntry(userID, vehicleID uuid.UUID, now time.Time) (*SearchHistoryEntry, error) {
	if userID == uuid.Nil {
		return nil, errors.Join(ErrInvalidHistoryEntry, errors.New("user id is required"))
	}
	if vehicleID == uuid.Nil {
		return nil, errors.Join(ErrInvalidHistoryEntry, errors.New("vehicle id is required"))
	}
	return &SearchHistoryEntry{
		ID:         uuid.New(),
		UserID:     userID,
		VehicleID:  vehicleID,
		SearchedAt: now.UTC(),
	}, nil
}

// SearchHistoryItem is a history entry joined with the vehicle it points at.
// Vehicle fields are nil when the vehicle row no longer exists.
type SearchHistoryItem struct {
	ID                 uuid.UUID `json:"id"`
	VehicleID          uuid.UUID `json:"vehicle_id"`
	RegistrationNumber *string   `json:"registration_number"`
	Brand              *string   `json:"brand"`
	Model              *string   `json:"model"`
	Year               *int      `json:"year"`
	SearchedAt         time.Time `json:"searched_at"`
}

type SearchHistoryPage struct {
	Items      []SearchHistoryItem `json:"items"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TodayCount int                 `json:"today_count"`
}
