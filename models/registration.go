package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	minRegistrationLength = 2
	maxRegistrationLength = 10
)

var registrationPattern = regexp.MustCompile(`^[A-Z0-9 ]+$`)

// ErrInvalidRegistration is returned by ParseRegistration for malformed plates.
var ErrInvalidRegistration = errors.New("invalid registration number")

// NormalizeRegistration trims surrounding whitespace and upper-cases the plate.
// It performs no validation.
func NormalizeRegistration(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseRegistration normalizes raw and checks it is 2-10 characters of
// A-Z, 0-9 and spaces.
func ParseRegistration(raw string) (string, error) {
	normalized := NormalizeRegistration(raw)

	if normalized == "" {
		return "", fmt.Errorf("%w: registration number is required", ErrInvalidRegistration)
	}
	if len(normalized) < minRegistrationLength || len(normalized) > maxRegistrationLength {
		return "", fmt.Errorf("%w: must be between %d and %d characters",
			ErrInvalidRegistration, minRegistrationLength, maxRegistrationLength)
	}
	if !registrationPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: only letters, digits and spaces are allowed", ErrInvalidRegistration)
	}

	return normalized, nil
}
