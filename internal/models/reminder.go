package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity types reminders can target
const (
	ReminderEntityPresentation = "presentation"
	ReminderEntityMeeting      = "meeting"
	ReminderEntityTask         = "task"
)

// Reminder types
const (
	ReminderTypeDayBefore = "day_before"
	ReminderTypeFinal     = "final"
	ReminderTypeDeadline  = "deadline"
)

// Reminder is dispatched at most once per
// (entity_type, entity_id, reminder_type, scheduled_for) tuple; the table
// carries a unique index on that tuple and Sent is flipped with a
// conditional update.
type Reminder struct {
	ID           uuid.UUID  `json:"id"`
	EntityType   string     `json:"entity_type"`
	EntityID     uuid.UUID  `json:"entity_id"`
	ReminderType string     `json:"reminder_type"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Sent         bool       `json:"sent"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
