package entities

import (
	"strings"
	"time"

	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusExpired   OfferStatus = "expired"
)

// IsTerminal reports whether the status permits no further transition.
// A countered offer is settled from its own perspective but still expires
// alongside its chain, so the expiry sweep treats it separately.
func (s OfferStatus) IsTerminal() bool {
	switch s {
	case OfferStatusAccepted, OfferStatusRejected, OfferStatusWithdrawn, OfferStatusExpired:
		return true
	default:
		return false
	}
}

type Offer struct {
	OfferID            string
	ProjectID          string
	BuyerID            string
	SellerID           string
	OfferedPriceCents  int64
	OriginalPriceCents int64
	Message            string
	Status             OfferStatus
	ParentOfferID      string
	ExpiresAt          time.Time
	CreatedAt          time.Time
	RespondedAt        *time.Time
}

// IsCounter reports whether the offer was authored by the seller in response
// to a parent offer. The negotiation roles derive entirely from this.
func (o Offer) IsCounter() bool {
	return o.ParentOfferID != ""
}

func NewRootOffer(
	offerID string,
	projectID string,
	buyerID string,
	sellerID string,
	offeredPriceCents int64,
	listingPriceCents int64,
	message string,
	createdAt time.Time,
	expiresAt time.Time,
) (Offer, error) {
	return newOffer(offerID, projectID, buyerID, sellerID, offeredPriceCents, listingPriceCents, message, "", createdAt, expiresAt)
}

func NewCounterOffer(
	offerID string,
	parentOfferID string,
	projectID string,
	buyerID string,
	sellerID string,
	offeredPriceCents int64,
	originalPriceCents int64,
	message string,
	createdAt time.Time,
	expiresAt time.Time,
) (Offer, error) {
	if strings.TrimSpace(parentOfferID) == "" {
		return Offer{}, domainerrors.ErrInvalidOfferRequest
	}
	return newOffer(offerID, projectID, buyerID, sellerID, offeredPriceCents, originalPriceCents, message, parentOfferID, createdAt, expiresAt)
}

func newOffer(
	offerID string,
	projectID string,
	buyerID string,
	sellerID string,
	offeredPriceCents int64,
	originalPriceCents int64,
	message string,
	parentOfferID string,
	createdAt time.Time,
	expiresAt time.Time,
) (Offer, error) {
	if strings.TrimSpace(offerID) == "" ||
		strings.TrimSpace(projectID) == "" ||
		strings.TrimSpace(buyerID) == "" ||
		strings.TrimSpace(sellerID) == "" {
		return Offer{}, domainerrors.ErrInvalidOfferRequest
	}
	if buyerID == sellerID {
		return Offer{}, domainerrors.ErrSelfOffer
	}
	if offeredPriceCents <= 0 || originalPriceCents <= 0 {
		return Offer{}, domainerrors.ErrInvalidOfferRequest
	}
	// The listing price is frozen at offer time; every offer in a chain must
	// undercut it.
	if offeredPriceCents >= originalPriceCents {
		return Offer{}, domainerrors.ErrPriceNotBelowListing
	}
	if !expiresAt.After(createdAt) {
		return Offer{}, domainerrors.ErrInvalidOfferRequest
	}

	return Offer{
		OfferID:            offerID,
		ProjectID:          projectID,
		BuyerID:            buyerID,
		SellerID:           sellerID,
		OfferedPriceCents:  offeredPriceCents,
		OriginalPriceCents: originalPriceCents,
		Message:            strings.TrimSpace(message),
		Status:             OfferStatusPending,
		ParentOfferID:      parentOfferID,
		ExpiresAt:          expiresAt.UTC(),
		CreatedAt:          createdAt.UTC(),
	}, nil
}
