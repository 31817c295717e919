package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/config"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

type ReminderStore interface {
	InsertIfAbsent(ctx context.Context, rem *models.Reminder) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.Reminder, error)
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

// ReminderService schedules and dispatches time-based reminders. Scheduling
// is idempotent per (entity, type, time) tuple; dispatch claims each due row
// before delivering and releases it if delivery fails, so a reminder is
// retried until it goes out but two dispatch passes never both deliver it.
type ReminderService struct {
	store    ReminderStore
	items    *ActionItemService
	users    UserDirectory
	mailer   Mailer
	notifier Notifier
	cfg      *config.Config
	log      *zap.Logger
}

func NewReminderService(store ReminderStore, items *ActionItemService, users UserDirectory, mailer Mailer, notifier Notifier, cfg *config.Config, log *zap.Logger) *ReminderService {
	return &ReminderService{
		store:    store,
		items:    items,
		users:    users,
		mailer:   mailer,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// Schedule derives the reminder set for an entity from its occurrence time
// and the configured offsets. Re-scheduling the same entity is a no-op for
// tuples that already exist; the returned count is the number of reminders
// actually created.
func (s *ReminderService) Schedule(ctx context.Context, entityType string, entityID uuid.UUID, occursAt time.Time) (int, error) {
	var plan []models.Reminder
	switch entityType {
	case models.ReminderEntityPresentation:
		plan = []models.Reminder{
			{ReminderType: models.ReminderTypeDayBefore, ScheduledFor: occursAt.Add(-s.cfg.PresentationReminderOffset)},
			{ReminderType: models.ReminderTypeFinal, ScheduledFor: occursAt.Add(-s.cfg.PresentationFinalOffset)},
		}
	case models.ReminderEntityMeeting:
		plan = []models.Reminder{
			{ReminderType: models.ReminderTypeDayBefore, ScheduledFor: occursAt.Add(-s.cfg.MeetingReminderOffset)},
		}
	case models.ReminderEntityTask:
		plan = []models.Reminder{
			{ReminderType: models.ReminderTypeDeadline, ScheduledFor: occursAt.Add(-s.cfg.TaskDeadlineOffset)},
		}
	default:
		return 0, fmt.Errorf("unknown reminder entity type %q", entityType)
	}

	created := 0
	for i := range plan {
		plan[i].EntityType = entityType
		plan[i].EntityID = entityID
		inserted, err := s.store.InsertIfAbsent(ctx, &plan[i])
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *ReminderService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.Reminder, error) {
	return s.store.ListByEntity(ctx, entityType, entityID)
}

// Dispatch delivers every reminder due at now. Each reminder is claimed
// first; losing the claim means another pass owns it and it is skipped
// silently. A failed delivery releases the claim so the next pass retries,
// which makes delivery at-least-once.
func (s *ReminderService) Dispatch(ctx context.Context, now time.Time) (JobResult, error) {
	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		return JobResult{}, err
	}

	var result JobResult
	for i := range due {
		rem := &due[i]
		claimed, err := s.store.Claim(ctx, rem.ID, now)
		if err != nil {
			s.log.Error("failed to claim reminder",
				zap.String("reminder_id", rem.ID.String()), zap.Error(err))
			result.Failed++
			continue
		}
		if !claimed {
			continue
		}

		if err := s.deliver(ctx, rem); err != nil {
			s.log.Error("reminder delivery failed, releasing claim",
				zap.String("reminder_id", rem.ID.String()),
				zap.String("entity_type", rem.EntityType), zap.Error(err))
			if relErr := s.store.Release(ctx, rem.ID); relErr != nil {
				s.log.Error("failed to release reminder claim",
					zap.String("reminder_id", rem.ID.String()), zap.Error(relErr))
			}
			result.Failed++
			continue
		}
		result.Processed++
	}
	return result, nil
}

func (s *ReminderService) deliver(ctx context.Context, rem *models.Reminder) error {
	recipients, err := s.recipientsFor(ctx, rem)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		// Nothing to do: the reminder stays claimed so it is not retried
		// against an empty audience forever.
		s.log.Warn("reminder has no recipients",
			zap.String("reminder_id", rem.ID.String()),
			zap.String("entity_type", rem.EntityType))
		return nil
	}

	subject, body := reminderMessage(rem)
	relatedID := rem.EntityID

	if _, err := s.notifier.FanOut(ctx, FanOutInput{
		Recipients:  recipients,
		Type:        "reminder",
		Title:       subject,
		Message:     body,
		RelatedType: &rem.EntityType,
		RelatedID:   &relatedID,
	}); err != nil {
		return fmt.Errorf("fan-out: %w", err)
	}

	for _, id := range recipients {
		user, err := s.users.GetByID(ctx, id)
		if err != nil || user.Email == nil {
			continue
		}
		if err := s.mailer.Send(ctx, *user.Email, subject, body); err != nil {
			return fmt.Errorf("%w: mail to %s: %v", ErrDeliveryFailed, *user.Email, err)
		}
	}
	return nil
}

// recipientsFor resolves who a reminder goes to: presentations are
// organization-wide, meetings go to coordinators, task deadlines go to the
// task's assignees.
func (s *ReminderService) recipientsFor(ctx context.Context, rem *models.Reminder) ([]uuid.UUID, error) {
	switch rem.EntityType {
	case models.ReminderEntityPresentation:
		return s.resolveIDs(ctx, models.AudienceAll)
	case models.ReminderEntityMeeting:
		return s.resolveIDs(ctx, models.RoleAudience(rbac.RoleCoordinator))
	case models.ReminderEntityTask:
		item, err := s.items.GetByID(ctx, rem.EntityID)
		if err != nil {
			return nil, err
		}
		return item.Assignees, nil
	}
	return nil, fmt.Errorf("unknown reminder entity type %q", rem.EntityType)
}

func (s *ReminderService) resolveIDs(ctx context.Context, audience models.Audience) ([]uuid.UUID, error) {
	var users []models.User
	var err error
	kind, value := audience.Kind()
	switch kind {
	case models.AudienceAll:
		users, err = s.users.ListAll(ctx)
	case "role":
		users, err = s.users.ListByRole(ctx, value)
	case "department":
		users, err = s.users.ListByDepartment(ctx, value)
	default:
		return nil, fmt.Errorf("unknown audience %q", audience)
	}
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if u.Email == nil {
			continue
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func reminderMessage(rem *models.Reminder) (subject, body string) {
	switch rem.ReminderType {
	case models.ReminderTypeFinal:
		subject = fmt.Sprintf("Starting soon: %s", rem.EntityType)
	case models.ReminderTypeDeadline:
		subject = fmt.Sprintf("Deadline approaching: %s", rem.EntityType)
	default:
		subject = fmt.Sprintf("Upcoming %s", rem.EntityType)
	}
	body = fmt.Sprintf("This is a reminder about a %s scheduled around %s.",
		rem.EntityType, rem.ScheduledFor.Format(time.RFC1123))
	return subject, body
}
