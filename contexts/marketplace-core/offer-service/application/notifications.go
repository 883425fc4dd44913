package application

import (
	"context"
	"log/slog"

	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	"halfbuilt/internal/shared/notify"
)

// Notification types recorded for negotiation transitions.
const (
	NotificationTypeOfferReceived  = "offer_received"
	NotificationTypeOfferCountered = "offer_countered"
	NotificationTypeOfferAccepted  = "offer_accepted"
	NotificationTypeOfferRejected  = "offer_rejected"
	NotificationTypeOfferWithdrawn = "offer_withdrawn"
	NotificationTypeOfferExpired   = "offer_expired"
)

// DispatchNotification records an in-app notification best-effort. A sink
// failure is logged and swallowed: the state transition already happened and
// must stand.
func DispatchNotification(ctx context.Context, sink notify.Sink, logger *slog.Logger, notification notify.Notification) {
	if sink == nil {
		return
	}
	if err := sink.CreateNotification(ctx, notification); err != nil {
		ResolveLogger(logger).Warn("offer notification dispatch failed",
			"event", "offer_notification_dispatch_failed",
			"module", "marketplace-core/offer-service",
			"layer", "application",
			"user_id", notification.UserID,
			"type", notification.Type,
			"error", err.Error(),
		)
	}
}

// DispatchEmail resolves the recipient's contact identity and sends a
// scenario email best-effort. Lookup and send failures are logged and
// swallowed.
func DispatchEmail(
	ctx context.Context,
	sink notify.Sink,
	users ports.UserDirectory,
	logger *slog.Logger,
	userID string,
	scenario string,
	data map[string]string,
) {
	if sink == nil || users == nil {
		return
	}
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		ResolveLogger(logger).Warn("offer email recipient lookup failed",
			"event", "offer_email_recipient_lookup_failed",
			"module", "marketplace-core/offer-service",
			"layer", "application",
			"user_id", userID,
			"scenario", scenario,
			"error", err.Error(),
		)
		return
	}
	if err := sink.SendEmail(ctx, notify.Email{To: user.Email, Scenario: scenario, Data: data}); err != nil {
		ResolveLogger(logger).Warn("offer email dispatch failed",
			"event", "offer_email_dispatch_failed",
			"module", "marketplace-core/offer-service",
			"layer", "application",
			"user_id", userID,
			"scenario", scenario,
			"error", err.Error(),
		)
	}
}
