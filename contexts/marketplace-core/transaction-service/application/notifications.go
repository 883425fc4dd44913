package application

import (
	"context"
	"log/slog"

	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/notify"
)

const (
	NotificationTypePurchaseCreated = "purchase_created"
	NotificationTypePaymentReceived = "payment_received"
	NotificationTypeEscrowReleased  = "escrow_released"
	NotificationTypePaymentRefunded = "payment_refunded"
	NotificationTypeEscrowDisputed  = "escrow_disputed"
)

// DispatchNotification records an in-app notification best-effort; failures
// are logged and swallowed.
func DispatchNotification(ctx context.Context, sink notify.Sink, logger *slog.Logger, notification notify.Notification) {
	if sink == nil {
		return
	}
	if err := sink.CreateNotification(ctx, notification); err != nil {
		ResolveLogger(logger).Warn("transaction notification dispatch failed",
			"event", "transaction_notification_dispatch_failed",
			"module", "marketplace-core/transaction-service",
			"layer", "application",
			"user_id", notification.UserID,
			"type", notification.Type,
			"error", err.Error(),
		)
	}
}

// DispatchEmail sends a scenario email best-effort.
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
		ResolveLogger(logger).Warn("transaction email recipient lookup failed",
			"event", "transaction_email_recipient_lookup_failed",
			"module", "marketplace-core/transaction-service",
			"layer", "application",
			"user_id", userID,
			"scenario", scenario,
			"error", err.Error(),
		)
		return
	}
	if err := sink.SendEmail(ctx, notify.Email{To: user.Email, Scenario: scenario, Data: data}); err != nil {
		ResolveLogger(logger).Warn("transaction email dispatch failed",
			"event", "transaction_email_dispatch_failed",
			"module", "marketplace-core/transaction-service",
			"layer", "application",
			"user_id", userID,
			"scenario", scenario,
			"error", err.Error(),
		)
	}
}
