package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        *string    `json:"email,omitempty"` // nil = no deliverable address
	DisplayName  string     `json:"display_name"`
	Role         string     `json:"role"`
	Department   string     `json:"department"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}
