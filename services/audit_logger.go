package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/models"
)

// AuditLogger writes an audit trail for every durable write.
type AuditLogger struct {
	serviceName string
	now         func() time.Time
}

func NewAuditLogger(serviceName string, now func() time.Time) *AuditLogger {
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{serviceName: serviceName, now: now}
}

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	Timestamp   time.Time
	ServiceName string
	Operation   string
	EntityType  string
	EntityID    string
	UserID      *uuid.UUID
	Changes     map[string]any
	Success     bool
	Err         error
	Metadata    map[string]any
}

func (a *AuditLogger) LogVehicleCreation(vehicle *models.VehicleIdentity, err error) {
	a.logAuditEntry(AuditEntry{
		Operation:  "CREATE",
		EntityType: "VEHICLE",
		EntityID:   vehicle.ID.String(),
		Success:    err == nil,
		Err:        err,
		Metadata: map[string]any{
			"registration_number": vehicle.RegistrationNumber,
			"brand":               vehicle.Brand,
			"model":               vehicle.Model,
			"year":                vehicle.Year,
		},
	})
}

func (a *AuditLogger) LogMileageUpdate(vehicleID uuid.UUID, before, after int, err error) {
	a.logAuditEntry(AuditEntry{
		Operation:  "UPDATE",
		EntityType: "VEHICLE",
		EntityID:   vehicleID.String(),
		Changes: map[string]any{
			"mileage": map[string]any{"before": before, "after": after},
		},
		Success: err == nil,
		Err:     err,
	})
}

func (a *AuditLogger) LogAnalysisPersisted(result *models.AnalysisResult, err error) {
	a.logAuditEntry(AuditEntry{
		Operation:  "CREATE",
		EntityType: "ANALYSIS",
		EntityID:   result.ID.String(),
		Success:    err == nil,
		Err:        err,
		Metadata: map[string]any{
			"vehicle_id": result.VehicleID.String(),
			"score":      result.Score.String(),
		},
	})
}

func (a *AuditLogger) LogHistoryDeletion(userID uuid.UUID, entryID *uuid.UUID, removed int64, err error) {
	entityID := "ALL"
	if entryID != nil {
		entityID = entryID.String()
	}
	a.logAuditEntry(AuditEntry{
		Operation:  "DELETE",
		EntityType: "SEARCH_HISTORY",
		EntityID:   entityID,
		UserID:     &userID,
		Success:    err == nil,
		Err:        err,
		Metadata:   map[string]any{"removed": removed},
	})
}

func (a *AuditLogger) logAuditEntry(entry AuditEntry) {
	logFields := logrus.Fields{
		"audit_timestamp": a.now().UTC(),
		"service_name":    a.serviceName,
		"operation":       entry.Operation,
		"entity_type":     entry.EntityType,
		"entity_id":       entry.EntityID,
		"success":         entry.Success,
	}

	if entry.UserID != nil {
		logFields["user_id"] = entry.UserID.String()
	}
	if entry.Err != nil {
		logFields["error_msg"] = entry.Err.Error()
	}
	if len(entry.Changes) > 0 {
		logFields["changes"] = entry.Changes
	}
	for key, value := range entry.Metadata {
		logFields["meta_"+key] = value
	}

	if entry.Success {
		logrus.WithFields(logFields).Info("Audit log entry")
	} else {
		logrus.WithFields(logFields).Warn("Audit log entry - operation failed")
	}
}
