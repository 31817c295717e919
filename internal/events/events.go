package events

import "context"

// Event types
const (
	EventNotificationCreated = "notification_created"
	EventAlertTriggered      = "alert_triggered"
	EventPipelineAdvanced    = "pipeline_advanced"
	EventActionItemUpdated   = "action_item_updated"
)

// Streams
const (
	StreamNotifications = "events:notification"
	StreamWorkflow      = "events:workflow"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
