package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FirstCarYear is the earliest model year accepted for a vehicle.
const FirstCarYear = 1886

// ErrInvalidVehicle wraps every VehicleIdentity validation failure.
var ErrInvalidVehicle = errors.New("invalid vehicle")

// VehicleIdentity is the durable record of a resolved vehicle. It is unique by
// RegistrationNumber and only Mileage changes after creation.
type VehicleIdentity struct {
	ID                 uuid.UUID `json:"id"`
	RegistrationNumber string    `json:"registration_number"`
	Brand              string    `json:"brand"`
	Model              string    `json:"model"`
	Year               int       `json:"year"`
	Mileage            int       `json:"mileage"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewVehicleIdentity builds a validated identity with a fresh id.
func NewVehicleIdentity(registration, brand, model string, year, mileage int, now time.Time) (*VehicleIdentity, error) {
	reg, err := ParseRegistration(registration)
	if err != nil {
		return nil, err
	}

	vehicle := &VehicleIdentity{
		ID:                 uuid.New(),
		RegistrationNumber: reg,
		Brand:              strings.TrimSpace(brand),
		Model:              strings.TrimSpace(model),
		Year:               year,
		Mileage:            mileage,
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
	if err := vehicle.Validate(now); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Validate checks the identity invariants against the given clock.
func (v *VehicleIdentity) Validate(now time.Time) error {
	if _, err := ParseRegistration(v.RegistrationNumber); err != nil {
		return err
	}
	if strings.TrimSpace(v.Brand) == "" {
		return fmt.Errorf("%w: brand is required", ErrInvalidVehicle)
	}
	if strings.TrimSpace(v.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidVehicle)
	}
	if v.Year < FirstCarYear || v.Year > now.Year()+1 {
		return fmt.Errorf("%w: year %d is out of range", ErrInvalidVehicle, v.Year)
	}
	if v.Mileage < 0 {
		return fmt.Errorf("%w: mileage cannot be negative", ErrInvalidVehicle)
	}
	return nil
}

// UpdateMileage refreshes the odometer reading.
func (v *VehicleIdentity) UpdateMileage(mileage int, now time.Time) error {
	if mileage < 0 {
		return fmt.Errorf("%w: mileage cannot be negative", ErrInvalidVehicle)
	}
	v.Mileage = mileage
	v.UpdatedAt = now.UTC()
	return nil
}
