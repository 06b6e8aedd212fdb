package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryDatabase   ErrorCategory = "database"
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryProcessing ErrorCategory = "processing"
	ErrorCategoryNotFound   ErrorCategory = "not_found"
	ErrorCategoryUpstream   ErrorCategory = "upstream"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
)

// Sentinels for errors.Is. Any ServiceError with the matching category
// compares equal to these.
var (
	ErrNotFound            = &ServiceError{Category: ErrorCategoryNotFound, Code: "NOT_FOUND"}
	ErrProviderUnavailable = &ServiceError{Category: ErrorCategoryUpstream, Code: "PROVIDER_UNAVAILABLE"}
	ErrValidation          = &ServiceError{Category: ErrorCategoryValidation, Code: "VALIDATION_FAILED"}
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is matches on category so callers can test against the package sentinels.
func (e *ServiceError) Is(target error) bool {
	var other *ServiceError
	if !errors.As(target, &other) {
		return false
	}
	return e.Category == other.Category
}

// HTTPStatus maps the error category onto a response status code.
func (e *ServiceError) HTTPStatus() int {
	switch e.Category {
	case ErrorCategoryNotFound:
		return http.StatusNotFound
	case ErrorCategoryUpstream:
		return http.StatusBadGateway
	case ErrorCategoryValidation:
		return http.StatusBadRequest
	case ErrorCategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewNotFoundError reports that a registration or vehicle id could not be resolved.
func NewNotFoundError(message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryNotFound, "NOT_FOUND", message, serviceName, operation, false, nil)
}

// NewProviderUnavailableError reports a failed or empty provider answer.
func NewProviderUnavailableError(message, serviceName, operation string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryUpstream, "PROVIDER_UNAVAILABLE", message, serviceName, operation, true, cause)
}

func NewValidationError(message, serviceName, operation string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryValidation, "VALIDATION_FAILED", message, serviceName, operation, false, cause)
}

func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	entry := logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"underlying_error": e.Cause,
	})

	// Misses are routine for a lookup service.
	if e.Category == ErrorCategoryNotFound || e.Category == ErrorCategoryValidation {
		entry.Info("Service request rejected")
		return
	}
	entry.Error("Service error occurred")
}

// WrapError wraps err with service context. An existing ServiceError keeps
// its category and message; the copy is restamped with serviceName and
// operation so sentinels are never mutated.
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		wrapped := *serviceErr
		wrapped.ServiceName = serviceName
		wrapped.Operation = operation
		return &wrapped
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.IsRetryable()
	}

	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"deadlock", "connection lost", "server shutdown",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}

	return false
}
