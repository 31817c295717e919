package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Audience descriptors. An audience is resolved to concrete user ids at the
// moment of fan-out, never stored as a member list.
const (
	AudienceAll              = "all"
	AudienceRolePrefix       = "role:"
	AudienceDepartmentPrefix = "department:"
)

// Audience is a logical recipient group: "all", "role:<name>" or
// "department:<tag>".
type Audience string

func RoleAudience(role string) Audience       { return Audience(AudienceRolePrefix + role) }
func DepartmentAudience(tag string) Audience  { return Audience(AudienceDepartmentPrefix + tag) }

// Kind splits the audience into its kind and value. Unknown descriptors
// return an empty kind.
func (a Audience) Kind() (kind, value string) {
	s := string(a)
	switch {
	case s == AudienceAll:
		return AudienceAll, ""
	case strings.HasPrefix(s, AudienceRolePrefix):
		return "role", strings.TrimPrefix(s, AudienceRolePrefix)
	case strings.HasPrefix(s, AudienceDepartmentPrefix):
		return "department", strings.TrimPrefix(s, AudienceDepartmentPrefix)
	}
	return "", ""
}

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	ActionURL   *string    `json:"action_url,omitempty"`
	RelatedType *string    `json:"related_type,omitempty"`
	RelatedID   *uuid.UUID `json:"related_id,omitempty"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
