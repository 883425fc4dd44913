package notify

import (
	"context"
	"log/slog"
)

// LogSink records deliveries to the process log. It stands in for the
// notification platform adapter until runtime wiring to the real dispatch
// service is finalized.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) CreateNotification(_ context.Context, notification Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification delivered",
		"event", "notify_log_notification",
		"module", "internal/shared/notify",
		"layer", "platform",
		"user_id", notification.UserID,
		"type", notification.Type,
		"related_entity_type", notification.RelatedEntityType,
		"related_entity_id", notification.RelatedEntityID,
	)
	return nil
}

func (s LogSink) SendEmail(_ context.Context, email Email) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email delivered",
		"event", "notify_log_email",
		"module", "internal/shared/notify",
		"layer", "platform",
		"to", email.To,
		"scenario", email.Scenario,
	)
	return nil
}
