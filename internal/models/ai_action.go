package models

import (
	"time"

	"github.com/google/uuid"
)

// AI action statuses
const (
	AIActionStatusProposed = "proposed"
	AIActionStatusApproved = "approved"
	AIActionStatusRejected = "rejected"
	AIActionStatusExecuted = "executed"
)

// approved -> rejected covers dispatcher failure after human approval:
// the action is approved, execution fails, and the record lands rejected
// with the reason in Results.
var ValidAIActionTransitions = map[string][]string{
	AIActionStatusProposed: {AIActionStatusApproved, AIActionStatusRejected},
	AIActionStatusApproved: {AIActionStatusExecuted, AIActionStatusRejected},
	AIActionStatusRejected: {},
	AIActionStatusExecuted: {},
}

func IsValidAIActionTransition(from, to string) bool {
	allowed, ok := ValidAIActionTransitions[from]
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

// AIActionPayload is opaque to the executor apart from Type, which keys the
// dispatcher.
type AIActionPayload struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

type AIAction struct {
	ID         uuid.UUID       `json:"id"`
	ProposerID uuid.UUID       `json:"proposer_id"`
	Payload    AIActionPayload `json:"payload"`
	Status     string          `json:"status"`
	ApprovedBy *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	ExecutedAt *time.Time      `json:"executed_at,omitempty"`
	Results    map[string]any  `json:"results,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
