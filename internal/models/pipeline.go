package models

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline entry statuses
const (
	PipelineEntryStatusNew        = "new"
	PipelineEntryStatusInProgress = "in_progress"
	PipelineEntryStatusOnHold     = "on_hold"
	PipelineEntryStatusClosed     = "closed"
)

var ValidPipelineEntryTransitions = map[string][]string{
	PipelineEntryStatusNew:        {PipelineEntryStatusInProgress, PipelineEntryStatusOnHold, PipelineEntryStatusClosed},
	PipelineEntryStatusInProgress: {PipelineEntryStatusOnHold, PipelineEntryStatusClosed},
	PipelineEntryStatusOnHold:     {PipelineEntryStatusInProgress, PipelineEntryStatusClosed},
	PipelineEntryStatusClosed:     {},
}

func IsValidPipelineEntryTransition(from, to string) bool {
	allowed, ok := ValidPipelineEntryTransitions[from]
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

// PipelineStage is one ordered step for an applicant type.
// (ApplicantType, StageName) is unique; StageOrder defines the sequence.
type PipelineStage struct {
	ID            uuid.UUID `json:"id"`
	ApplicantType string    `json:"applicant_type"`
	StageName     string    `json:"stage_name"`
	StageOrder    int       `json:"stage_order"`
	AutoActions   AutoActions `json:"auto_actions"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// AutoActions is the side-effect policy evaluated when an entry enters the stage.
type AutoActions struct {
	SendNotification       bool    `json:"send_notification"`
	NotificationTemplateID *string `json:"notification_template_id,omitempty"`
	CreateFollowup         bool    `json:"create_followup"`
	FollowupDays           int     `json:"followup_days"`
}

type PipelineEntry struct {
	ID            uuid.UUID  `json:"id"`
	ApplicantID   uuid.UUID  `json:"applicant_id"`
	ApplicantType string     `json:"applicant_type"`
	CurrentStage  string     `json:"current_stage"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	AssigneeID    *uuid.UUID `json:"assignee_id,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Auto-action kinds recorded in pipeline_fired_actions. One row per
// (entry, stage, kind) means the action fired exactly once.
const (
	FiredActionNotification = "notification"
	FiredActionFollowup     = "follow_up"
)
