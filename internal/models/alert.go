package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert severities
const (
	AlertSeverityInfo     = "info"
	AlertSeverityWarning  = "warning"
	AlertSeverityCritical = "critical"
)

func IsValidAlertSeverity(s string) bool {
	switch s {
	case AlertSeverityInfo, AlertSeverityWarning, AlertSeverityCritical:
		return true
	}
	return false
}

type Alert struct {
	ID             uuid.UUID  `json:"id"`
	Department     string     `json:"department"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	TriggeredBy    uuid.UUID  `json:"triggered_by"`
	AcknowledgedBy *uuid.UUID `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
