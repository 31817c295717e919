package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/events"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"github.com/volunteer-portal/backend/internal/repositories"
	"go.uber.org/zap"
)

const historySummaryLimit = 80

type ActionItemStore interface {
	Create(ctx context.Context, item *models.ActionItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ActionItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedBy *uuid.UUID, completedAt *time.Time) error
	ListByEntity(ctx context.Context, relatedType string, relatedID uuid.UUID) ([]models.ActionItem, error)
	ListAssignedTo(ctx context.Context, userID uuid.UUID) ([]models.ActionItem, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.ActionItem, error)
	CountOpenByDepartment(ctx context.Context) ([]repositories.DepartmentCounts, error)
	AddComment(ctx context.Context, c *models.ActionItemComment) error
	ListComments(ctx context.Context, itemID uuid.UUID, includeInternal bool) ([]models.ActionItemComment, error)
	AppendHistory(ctx context.Context, e *models.ActionItemHistoryEntry) error
	ListHistory(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.ActionItemHistoryEntry, error)
}

type ActionItemService struct {
	store     ActionItemStore
	users     UserDirectory
	publisher events.Publisher
	log       *zap.Logger
}

func NewActionItemService(store ActionItemStore, users UserDirectory, publisher events.Publisher, log *zap.Logger) *ActionItemService {
	return &ActionItemService{store: store, users: users, publisher: publisher, log: log}
}

type CreateActionItemInput struct {
	Title       string
	Description *string
	Type        string
	Priority    string
	Assignees   []uuid.UUID
	AssignerID  uuid.UUID
	DueDate     *time.Time
	RelatedType *string
	RelatedID   *uuid.UUID
	Metadata    map[string]any
}

func (s *ActionItemService) Create(ctx context.Context, input CreateActionItemInput) (*models.ActionItem, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !models.IsValidPriority(input.Priority) {
		return nil, fmt.Errorf("invalid priority %q", input.Priority)
	}

	item := &models.ActionItem{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Priority:    input.Priority,
		Status:      models.ActionItemStatusPending,
		Assignees:   input.Assignees,
		AssignerID:  input.AssignerID,
		DueDate:     input.DueDate,
		RelatedType: input.RelatedType,
		RelatedID:   input.RelatedID,
		Metadata:    input.Metadata,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}

	s.appendHistory(ctx, item.ID, &input.AssignerID, "created", nil, strPtr(item.Status), map[string]any{
		"type": item.Type, "priority": item.Priority,
	})

	return item, nil
}

// Transition moves an item to a new status on behalf of an actor. The actor
// must be an assignee, the assigner, or hold a privileged role.
func (s *ActionItemService) Transition(ctx context.Context, id uuid.UUID, newStatus string, actorID uuid.UUID) (*models.ActionItem, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: action item %s", ErrNotFound, id)
	}

	if err := s.checkActor(ctx, item, actorID); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, item, newStatus, &actorID, time.Now())
}

func (s *ActionItemService) applyTransition(ctx context.Context, item *models.ActionItem, newStatus string, actorID *uuid.UUID, now time.Time) (*models.ActionItem, error) {
	if !models.IsValidActionItemTransition(item.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, newStatus)
	}
	// Overdue additionally requires an elapsed due date.
	if newStatus == models.ActionItemStatusOverdue {
		if item.DueDate == nil || item.DueDate.After(now) {
			return nil, fmt.Errorf("%w: %s -> %s (due date not passed)", ErrInvalidTransition, item.Status, newStatus)
		}
	}

	var completedBy *uuid.UUID
	var completedAt *time.Time
	if newStatus == models.ActionItemStatusCompleted {
		completedBy = actorID
		completedAt = &now
	}

	oldStatus := item.Status
	if err := s.store.UpdateStatus(ctx, item.ID, newStatus, completedBy, completedAt); err != nil {
		return nil, err
	}
	item.Status = newStatus
	item.CompletedBy = completedBy
	item.CompletedAt = completedAt
	item.UpdatedAt = now

	s.appendHistory(ctx, item.ID, actorID, "status_changed", &oldStatus, &newStatus, nil)

	_ = s.publisher.Publish(ctx, events.StreamWorkflow, events.Event{
		Type: events.EventActionItemUpdated,
		Payload: map[string]any{
			"action_item_id": item.ID.String(),
			"old_status":     oldStatus,
			"new_status":     newStatus,
		},
	})

	return item, nil
}

func (s *ActionItemService) AddComment(ctx context.Context, id uuid.UUID, authorID uuid.UUID, body string, internal bool) (*models.ActionItemComment, error) {
	if body == "" {
		return nil, fmt.Errorf("comment body is required")
	}

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: action item %s", ErrNotFound, id)
	}
	if err := s.checkActor(ctx, item, authorID); err != nil {
		return nil, err
	}

	comment := &models.ActionItemComment{
		ActionItemID: id,
		AuthorID:     authorID,
		Body:         body,
		Internal:     internal,
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	s.appendHistory(ctx, id, &authorID, "comment_added", nil, strPtr(truncate(body, historySummaryLimit)), map[string]any{
		"internal": internal,
	})

	return comment, nil
}

func (s *ActionItemService) GetByID(ctx context.Context, id uuid.UUID) (*models.ActionItem, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: action item %s", ErrNotFound, id)
	}
	return item, nil
}

func (s *ActionItemService) ListByEntity(ctx context.Context, relatedType string, relatedID uuid.UUID) ([]models.ActionItem, error) {
	return s.store.ListByEntity(ctx, relatedType, relatedID)
}

func (s *ActionItemService) ListAssignedTo(ctx context.Context, userID uuid.UUID) ([]models.ActionItem, error) {
	return s.store.ListAssignedTo(ctx, userID)
}

func (s *ActionItemService) ListOverdue(ctx context.Context, now time.Time) ([]models.ActionItem, error) {
	return s.store.ListOverdue(ctx, now)
}

func (s *ActionItemService) CountOpenByDepartment(ctx context.Context) ([]repositories.DepartmentCounts, error) {
	return s.store.CountOpenByDepartment(ctx)
}

func (s *ActionItemService) ListComments(ctx context.Context, itemID uuid.UUID, includeInternal bool) ([]models.ActionItemComment, error) {
	return s.store.ListComments(ctx, itemID, includeInternal)
}

func (s *ActionItemService) ListHistory(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.ActionItemHistoryEntry, error) {
	return s.store.ListHistory(ctx, itemID, limit, offset)
}

// SweepOverdue transitions every non-terminal item with an elapsed due date
// to overdue, acting as the system. Per-item failures are counted, not fatal.
func (s *ActionItemService) SweepOverdue(ctx context.Context, now time.Time) (JobResult, error) {
	items, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return JobResult{}, err
	}

	var result JobResult
	for i := range items {
		if _, err := s.applyTransition(ctx, &items[i], models.ActionItemStatusOverdue, nil, now); err != nil {
			s.log.Error("overdue sweep failed for item",
				zap.String("action_item_id", items[i].ID.String()), zap.Error(err))
			result.Failed++
			continue
		}
		result.Processed++
	}
	return result, nil
}

// --- helpers ---

func (s *ActionItemService) checkActor(ctx context.Context, item *models.ActionItem, actorID uuid.UUID) error {
	if item.IsAssignee(actorID) || item.AssignerID == actorID {
		return nil
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("%w: unknown actor %s", ErrForbidden, actorID)
	}
	if rbac.IsPrivileged(actor.Role) {
		return nil
	}
	return fmt.Errorf("%w: user %s is neither assignee, assigner, nor privileged", ErrForbidden, actorID)
}

func (s *ActionItemService) appendHistory(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, action string, oldValue, newValue *string, meta map[string]any) {
	entry := &models.ActionItemHistoryEntry{
		ActionItemID: itemID,
		ActorID:      actorID,
		Action:       action,
		OldValue:     oldValue,
		NewValue:     newValue,
		Meta:         meta,
	}
	if err := s.store.AppendHistory(ctx, entry); err != nil {
		// History is best-effort on write but operators need to see the gap.
		s.log.Error("failed to append action item history",
			zap.String("action_item_id", itemID.String()),
			zap.String("action", action), zap.Error(err))
	}
}

func strPtr(s string) *string {
	return &s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
