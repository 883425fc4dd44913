package notify

import (
	"context"
	"time"
)

// Notification is the in-app notification contract shared by the marketplace
// engines. Align fields with the notification platform's canonical shape.
type Notification struct {
	NotificationID    string    `json:"notification_id"`
	UserID            string    `json:"user_id"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	ActionURL         string    `json:"action_url,omitempty"`
	RelatedEntityType string    `json:"related_entity_type,omitempty"`
	RelatedEntityID   string    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Email is a scenario-keyed mail dispatch request. Template selection and
// rendering happen downstream in the mail platform.
type Email struct {
	To       string            `json:"to"`
	Scenario string            `json:"scenario"`
	Data     map[string]string `json:"data,omitempty"`
}

// Sink is the best-effort delivery port consumed by the engines. Callers must
// treat failures as log-and-continue: a sink outage never fails a state
// transition.
type Sink interface {
	CreateNotification(ctx context.Context, notification Notification) error
	SendEmail(ctx context.Context, email Email) error
}
