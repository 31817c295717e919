package models

import (
	"time"

	"github.com/google/uuid"
)

// Action item statuses
const (
	ActionItemStatusPending    = "pending"
	ActionItemStatusInProgress = "in_progress"
	ActionItemStatusCompleted  = "completed"
	ActionItemStatusCancelled  = "cancelled"
	ActionItemStatusOverdue    = "overdue"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Well-known action item types. The column itself is a free-form tag;
// these are the ones the engine creates.
const (
	ActionItemTypeFollowUp          = "follow_up"
	ActionItemTypeRecruitmentReview = "recruitment_review"
	ActionItemTypeNotification      = "notification"
	ActionItemTypeSupplyRequest     = "supply_request"
)

// Valid status transitions: from -> []to. Overdue is reachable from every
// non-terminal status but only when the due date has passed; that extra
// condition is enforced in the service layer.
var ValidActionItemTransitions = map[string][]string{
	ActionItemStatusPending:    {ActionItemStatusInProgress, ActionItemStatusCompleted, ActionItemStatusCancelled, ActionItemStatusOverdue},
	ActionItemStatusInProgress: {ActionItemStatusCompleted, ActionItemStatusCancelled, ActionItemStatusOverdue},
	ActionItemStatusOverdue:    {ActionItemStatusInProgress, ActionItemStatusCompleted, ActionItemStatusCancelled},
	ActionItemStatusCompleted:  {},
	ActionItemStatusCancelled:  {},
}

func IsValidActionItemTransition(from, to string) bool {
	allowed, ok := ValidActionItemTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminalActionItemStatus(status string) bool {
	return status == ActionItemStatusCompleted || status == ActionItemStatusCancelled
}

func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ActionItem struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Type        string      `json:"type"`
	Priority    string      `json:"priority"`
	Status      string      `json:"status"`
	Assignees   []uuid.UUID `json:"assignees"` // empty = unassigned, broadcast to role
	AssignerID  uuid.UUID   `json:"assigner_id"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	RelatedType *string     `json:"related_type,omitempty"`
	RelatedID   *uuid.UUID  `json:"related_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CompletedBy *uuid.UUID  `json:"completed_by,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsAssignee reports whether the user is on the assignee list.
func (a *ActionItem) IsAssignee(userID uuid.UUID) bool {
	for _, id := range a.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

type ActionItemComment struct {
	ID           uuid.UUID `json:"id"`
	ActionItemID uuid.UUID `json:"action_item_id"`
	AuthorID     uuid.UUID `json:"author_id"`
	Body         string    `json:"body"`
	Internal     bool      `json:"internal"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActionItemHistoryEntry is append-only: rows are never updated or deleted.
type ActionItemHistoryEntry struct {
	ID           uuid.UUID      `json:"id"`
	ActionItemID uuid.UUID      `json:"action_item_id"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"` // nil = system
	Action       string         `json:"action"`
	OldValue     *string        `json:"old_value,omitempty"`
	NewValue     *string        `json:"new_value,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
