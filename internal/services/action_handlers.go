package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/models"
)

// Built-in action types the approval executor knows out of the box.
const (
	ActionTypeSendEmail        = "send_email"
	ActionTypeCreateActionItem = "create_action_item"
	ActionTypeCreateAlert      = "create_alert"
)

// RegisterBuiltinActions wires the standard handlers into the executor.
// Each handler reads its inputs from the action's params and attributes the
// side effect to the proposer.
func RegisterBuiltinActions(approvals *ApprovalService, items *ActionItemService, alerts *AlertService, mailer Mailer) {
	approvals.Register(ActionTypeSendEmail, func(ctx context.Context, a *models.AIAction) (map[string]any, error) {
		to, _ := a.Payload.Params["to"].(string)
		subject, _ := a.Payload.Params["subject"].(string)
		body, _ := a.Payload.Params["body"].(string)
		if to == "" || subject == "" {
			return nil, fmt.Errorf("send_email requires to and subject")
		}
		if err := mailer.Send(ctx, to, subject, body); err != nil {
			return nil, err
		}
		return map[string]any{"sent_to": to}, nil
	})

	approvals.Register(ActionTypeCreateActionItem, func(ctx context.Context, a *models.AIAction) (map[string]any, error) {
		title, _ := a.Payload.Params["title"].(string)
		if title == "" {
			return nil, fmt.Errorf("create_action_item requires title")
		}
		itemType, _ := a.Payload.Params["type"].(string)
		if itemType == "" {
			itemType = models.ActionItemTypeFollowUp
		}
		priority, _ := a.Payload.Params["priority"].(string)

		var assignees []uuid.UUID
		if raw, ok := a.Payload.Params["assignees"].([]any); ok {
			for _, v := range raw {
				s, _ := v.(string)
				id, err := uuid.Parse(s)
				if err != nil {
					return nil, fmt.Errorf("invalid assignee id %q", s)
				}
				assignees = append(assignees, id)
			}
		}

		var dueDate *time.Time
		if s, ok := a.Payload.Params["due_date"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("invalid due_date: %v", err)
			}
			dueDate = &t
		}

		var description *string
		if s, ok := a.Payload.Params["description"].(string); ok && s != "" {
			description = &s
		}

		item, err := items.Create(ctx, CreateActionItemInput{
			Title:       title,
			Description: description,
			Type:        itemType,
			Priority:    priority,
			Assignees:   assignees,
			AssignerID:  a.ProposerID,
			DueDate:     dueDate,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"action_item_id": item.ID.String()}, nil
	})

	approvals.Register(ActionTypeCreateAlert, func(ctx context.Context, a *models.AIAction) (map[string]any, error) {
		department, _ := a.Payload.Params["department"].(string)
		severity, _ := a.Payload.Params["severity"].(string)
		message, _ := a.Payload.Params["message"].(string)

		alert, err := alerts.Create(ctx, department, severity, message, a.ProposerID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"alert_id": alert.ID.String()}, nil
	})
}
