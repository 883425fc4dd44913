package workers

import (
	"context"
	"log/slog"
	"time"

	application "halfbuilt/contexts/marketplace-core/offer-service/application"
	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	"halfbuilt/internal/shared/notify"
)

// OfferExpirer sweeps offers still in pending or countered past expires_at.
// Each record settles independently: a failed transition is logged and the
// sweep moves on, so one bad row never starves the batch.
type OfferExpirer struct {
	Offers        ports.OfferRepository
	Users         ports.UserDirectory
	Notifications notify.Sink
	Clock         ports.Clock
	BatchSize     int
	Logger        *slog.Logger
}

// RunOnce returns the number of offers successfully expired.
func (e OfferExpirer) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(e.Logger)
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}
	limit := e.BatchSize
	if limit <= 0 {
		limit = 100
	}

	stale, err := e.Offers.ListExpiredOffers(ctx, now, limit)
	if err != nil {
		logger.Error("offer expiry sweep failed",
			"event", "offer_expiry_list_failed",
			"module", "marketplace-core/offer-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	expired := 0
	for _, offer := range stale {
		// Countered parents keep their original responded_at; only a pending
		// offer records the expiry as its response time.
		respondedAt := time.Time{}
		if offer.RespondedAt == nil {
			respondedAt = now
		}
		updated, err := e.Offers.UpdateOfferStatus(ctx, offer.OfferID, offer.Status, entities.OfferStatusExpired, respondedAt)
		if err != nil {
			logger.Warn("offer expiry transition failed",
				"event", "offer_expiry_transition_failed",
				"module", "marketplace-core/offer-service",
				"layer", "worker",
				"offer_id", offer.OfferID,
				"error", err.Error(),
			)
			continue
		}
		expired++

		for _, userID := range []string{updated.BuyerID, updated.SellerID} {
			application.DispatchNotification(ctx, e.Notifications, e.Logger, notify.Notification{
				UserID:            userID,
				Type:              application.NotificationTypeOfferExpired,
				Title:             "Offer expired",
				Message:           "An offer in your negotiation expired without a response.",
				RelatedEntityType: "offer",
				RelatedEntityID:   updated.OfferID,
				CreatedAt:         now,
			})
			application.DispatchEmail(ctx, e.Notifications, e.Users, e.Logger, userID, "offer_expired", map[string]string{
				"offer_id": updated.OfferID,
			})
		}
	}

	if expired > 0 {
		logger.Info("offer expiry sweep completed",
			"event", "offer_expiry_completed",
			"module", "marketplace-core/offer-service",
			"layer", "worker",
			"expired_count", expired,
		)
	}
	return expired, nil
}
