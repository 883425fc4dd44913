package services

import (
	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
)

// Kind tags an offer by its position in the negotiation chain. A root offer is
// authored by the buyer, a counter-offer by the seller; every role question
// below is a total match on this tag so the mapping can never be computed
// backwards in one branch and forwards in another.
type Kind int

const (
	KindRoot Kind = iota
	KindCounter
)

func KindOf(offer entities.Offer) Kind {
	if offer.IsCounter() {
		return KindCounter
	}
	return KindRoot
}

// ExpectedResponder returns the party entitled to accept or reject the offer:
// the offer is addressed to them. Root offers are addressed to the seller,
// counter-offers to the buyer.
func ExpectedResponder(offer entities.Offer) string {
	switch KindOf(offer) {
	case KindCounter:
		return offer.BuyerID
	default:
		return offer.SellerID
	}
}

// ExpectedWithdrawer returns the party entitled to retract the offer: its
// author. The inverse of ExpectedResponder.
func ExpectedWithdrawer(offer entities.Offer) string {
	switch KindOf(offer) {
	case KindCounter:
		return offer.SellerID
	default:
		return offer.BuyerID
	}
}

// Counterparty returns the other negotiation party relative to actorID.
func Counterparty(offer entities.Offer, actorID string) string {
	if actorID == offer.BuyerID {
		return offer.SellerID
	}
	return offer.BuyerID
}

// IsParticipant reports whether the user may see the offer at all.
func IsParticipant(offer entities.Offer, userID string) bool {
	return userID == offer.BuyerID || userID == offer.SellerID
}

// ValidateOfferPrice applies the pricing rules shared by root and counter
// offers: at or above the marketplace floor, at or above the project's own
// minimum when one is set, and strictly below the frozen listing price.
func ValidateOfferPrice(priceCents, listingPriceCents, projectMinCents, floorCents int64) error {
	if priceCents <= 0 {
		return domainerrors.ErrInvalidOfferRequest
	}
	if priceCents < floorCents {
		return domainerrors.ErrPriceBelowFloor
	}
	if projectMinCents > 0 && priceCents < projectMinCents {
		return domainerrors.ErrPriceBelowProjectMinimum
	}
	if priceCents >= listingPriceCents {
		return domainerrors.ErrPriceNotBelowListing
	}
	return nil
}
