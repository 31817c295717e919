package dto

import "time"

type LoginRequest struct {
	Email string `json:"email"`
}

type CreateActionItemRequest struct {
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Type        string         `json:"type"`
	Priority    string         `json:"priority,omitempty"`
	Assignees   []string       `json:"assignees,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	RelatedType *string        `json:"related_type,omitempty"`
	RelatedID   *string        `json:"related_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type AddCommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

type CreateStageRequest struct {
	ApplicantType string  `json:"applicant_type"`
	StageName     string  `json:"stage_name"`
	StageOrder    int     `json:"stage_order"`
	IsActive      *bool   `json:"is_active,omitempty"`
	AutoActions   *struct {
		SendNotification       bool    `json:"send_notification"`
		NotificationTemplateID *string `json:"notification_template_id,omitempty"`
		CreateFollowup         bool    `json:"create_followup"`
		FollowupDays           int     `json:"followup_days"`
	} `json:"auto_actions,omitempty"`
}

type EnrollRequest struct {
	ApplicantID   string  `json:"applicant_id"`
	ApplicantType string  `json:"applicant_type"`
	Priority      string  `json:"priority,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type AdvanceRequest struct {
	Stage string `json:"stage,omitempty"` // empty = next stage by order
}

type ProposeActionRequest struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

type DecideActionRequest struct {
	Approve bool `json:"approve"`
}

type ScheduleReminderRequest struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	OccursAt   time.Time `json:"occurs_at"`
}

type CreateAlertRequest struct {
	Department string `json:"department"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
}
