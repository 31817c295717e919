package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/events"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

type AlertStore interface {
	Create(ctx context.Context, a *models.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	Acknowledge(ctx context.Context, id, actor uuid.UUID, at time.Time) (bool, error)
	ListByDepartment(ctx context.Context, department string, limit, offset int) ([]models.Alert, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Alert, error)
	CountUnacknowledged(ctx context.Context, department string) (int, error)
}

// AlertService raises department-scoped alerts and fans them out to the
// department's members. An alert is acknowledged at most once.
type AlertService struct {
	store     AlertStore
	users     UserDirectory
	notifier  Notifier
	publisher events.Publisher
	log       *zap.Logger
}

func NewAlertService(store AlertStore, users UserDirectory, notifier Notifier, publisher events.Publisher, log *zap.Logger) *AlertService {
	return &AlertService{store: store, users: users, notifier: notifier, publisher: publisher, log: log}
}

func (s *AlertService) Create(ctx context.Context, department, severity, message string, triggeredBy uuid.UUID) (*models.Alert, error) {
	if department == "" {
		return nil, fmt.Errorf("department is required")
	}
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	if !models.IsValidAlertSeverity(severity) {
		return nil, fmt.Errorf("invalid severity %q", severity)
	}

	alert := &models.Alert{
		Department:  department,
		Severity:    severity,
		Message:     message,
		TriggeredBy: triggeredBy,
	}
	if err := s.store.Create(ctx, alert); err != nil {
		return nil, err
	}

	relatedType := "alert"
	if _, err := s.notifier.FanOut(ctx, FanOutInput{
		Audience:    models.DepartmentAudience(department),
		Type:        "alert",
		Title:       fmt.Sprintf("[%s] alert for %s", severity, department),
		Message:     message,
		RelatedType: &relatedType,
		RelatedID:   &alert.ID,
	}); err != nil {
		// The alert row exists regardless; fan-out failures surface in logs.
		s.log.Error("alert fan-out failed",
			zap.String("alert_id", alert.ID.String()), zap.Error(err))
	}

	_ = s.publisher.Publish(ctx, events.StreamWorkflow, events.Event{
		Type: events.EventAlertTriggered,
		Payload: map[string]any{
			"alert_id":   alert.ID.String(),
			"department": department,
			"severity":   severity,
		},
	})

	return alert, nil
}

// Acknowledge records who handled the alert. The first acknowledgment wins;
// later attempts get ErrAlreadyAcknowledged with the original stamp intact.
func (s *AlertService) Acknowledge(ctx context.Context, alertID, actorID uuid.UUID) (*models.Alert, error) {
	if _, err := s.store.GetByID(ctx, alertID); err != nil {
		return nil, fmt.Errorf("%w: alert %s", ErrNotFound, alertID)
	}

	ok, err := s.store.Acknowledge(ctx, alertID, actorID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: alert %s", ErrAlreadyAcknowledged, alertID)
	}
	return s.store.GetByID(ctx, alertID)
}

// ListForViewer scopes alert listing by role: privileged roles may pass
// department "all" or any department, everyone else is pinned to their own.
func (s *AlertService) ListForViewer(ctx context.Context, viewer *models.User, department string, limit, offset int) ([]models.Alert, error) {
	if !rbac.HasPermission(viewer.Role, rbac.PermViewAllAlerts) {
		if viewer.Department == "" {
			return nil, fmt.Errorf("%w: user %s has no department", ErrForbidden, viewer.ID)
		}
		return s.store.ListByDepartment(ctx, viewer.Department, limit, offset)
	}
	if department == "" || department == "all" {
		return s.store.ListAll(ctx, limit, offset)
	}
	return s.store.ListByDepartment(ctx, department, limit, offset)
}

func (s *AlertService) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	alert, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: alert %s", ErrNotFound, id)
	}
	return alert, nil
}

func (s *AlertService) CountUnacknowledged(ctx context.Context, department string) (int, error) {
	return s.store.CountUnacknowledged(ctx, department)
}
