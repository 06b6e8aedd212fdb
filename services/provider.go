package services

import (
	"context"

	"github.com/carcheck/carcheck-backend/models"
)

// VehicleDataProvider resolves a registration number to everything an
// upstream source knows about it. A nil snapshot with a nil error means the
// registration is unknown to the provider; errors mean the provider could not
// answer.
type VehicleDataProvider interface {
	Name() string
	FetchByRegistration(ctx context.Context, registration string) (*models.RawSignalSnapshot, error)
}

const (
	providerOutcomeFound    = "found"
	providerOutcomeNotFound = "not_found"
	providerOutcomeError    = "error"
)

func ptr[T any](v T) *T { return &v }
