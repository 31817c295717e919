package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/events"
	"github.com/volunteer-portal/backend/internal/models"
	"go.uber.org/zap"
)

// UserDirectory is the identity/role collaborator. Audience membership is
// always queried live, never cached, so a role change is reflected on the
// next fan-out.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	ListByDepartment(ctx context.Context, department string) ([]models.User, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) (bool, error)
	Delete(ctx context.Context, id, recipientID uuid.UUID) (bool, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// Notifier is the fan-out capability the other engine components consume.
type Notifier interface {
	FanOut(ctx context.Context, input FanOutInput) (int, error)
}

type NotificationService struct {
	store     NotificationStore
	users     UserDirectory
	publisher events.Publisher
	log       *zap.Logger
}

func NewNotificationService(store NotificationStore, users UserDirectory, publisher events.Publisher, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, users: users, publisher: publisher, log: log}
}

// FanOutInput carries either a logical audience or explicit recipient ids,
// plus the message to deliver.
type FanOutInput struct {
	Audience   models.Audience // resolved when Recipients is empty
	Recipients []uuid.UUID

	Type        string
	Title       string
	Message     string
	ActionURL   *string
	RelatedType *string
	RelatedID   *uuid.UUID
}

// Resolve maps an audience descriptor to the current set of member ids.
func (s *NotificationService) Resolve(ctx context.Context, audience models.Audience) ([]uuid.UUID, error) {
	users, err := s.resolveUsers(ctx, audience)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *NotificationService) resolveUsers(ctx context.Context, audience models.Audience) ([]models.User, error) {
	kind, value := audience.Kind()
	switch kind {
	case models.AudienceAll:
		return s.users.ListAll(ctx)
	case "role":
		return s.users.ListByRole(ctx, value)
	case "department":
		return s.users.ListByDepartment(ctx, value)
	}
	return nil, fmt.Errorf("unknown audience %q", audience)
}

// FanOut creates one notification per recipient and publishes a live event
// for each. Audience members without a deliverable address are skipped, not
// failed; explicitly named recipients are always included.
func (s *NotificationService) FanOut(ctx context.Context, input FanOutInput) (int, error) {
	recipients := input.Recipients
	if len(recipients) == 0 {
		users, err := s.resolveUsers(ctx, input.Audience)
		if err != nil {
			return 0, err
		}
		for _, u := range users {
			if u.Email == nil {
				s.log.Debug("skipping recipient without address", zap.String("user_id", u.ID.String()))
				continue
			}
			recipients = append(recipients, u.ID)
		}
	}

	created := 0
	for _, recipientID := range recipients {
		n := &models.Notification{
			RecipientID: recipientID,
			Type:        input.Type,
			Title:       input.Title,
			Message:     input.Message,
			ActionURL:   input.ActionURL,
			RelatedType: input.RelatedType,
			RelatedID:   input.RelatedID,
		}
		if err := s.store.Insert(ctx, n); err != nil {
			return created, err
		}
		created++

		_ = s.publisher.Publish(ctx, events.StreamNotifications, events.Event{
			Type: events.EventNotificationCreated,
			Payload: map[string]any{
				"notification_id": n.ID.String(),
				"recipient_id":    recipientID.String(),
				"type":            n.Type,
				"title":           n.Title,
			},
		})
	}
	return created, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	return s.store.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.store.MarkRead(ctx, id, userID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}
