package entities

import (
	"strings"
	"time"

	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

type CodeDeliveryStatus string

const (
	CodeDeliveryNotAccessed CodeDeliveryStatus = "not_accessed"
	CodeDeliveryAccessed    CodeDeliveryStatus = "accessed"
)

type Transaction struct {
	TransactionID       string
	ProjectID           string
	BuyerID             string
	SellerID            string
	AcceptedOfferID     string
	AmountCents         int64
	CommissionCents     int64
	SellerReceivesCents int64
	PaymentStatus       PaymentStatus
	EscrowStatus        EscrowStatus
	EscrowReleaseDate   time.Time
	ReleasedToSellerAt  *time.Time
	CodeDeliveryStatus  CodeDeliveryStatus
	CodeAccessedAt      *time.Time
	CreatedAt           time.Time
}

// NewTransaction freezes the commission split at creation: later rate or
// price changes never retroactively affect the record.
func NewTransaction(
	transactionID string,
	projectID string,
	buyerID string,
	sellerID string,
	acceptedOfferID string,
	amountCents int64,
	commissionCents int64,
	createdAt time.Time,
	escrowReleaseDate time.Time,
) (Transaction, error) {
	if strings.TrimSpace(transactionID) == "" ||
		strings.TrimSpace(projectID) == "" ||
		strings.TrimSpace(buyerID) == "" ||
		strings.TrimSpace(sellerID) == "" {
		return Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}
	if buyerID == sellerID {
		return Transaction{}, domainerrors.ErrSelfPurchase
	}
	if amountCents <= 0 || commissionCents < 0 || commissionCents > amountCents {
		return Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}
	if !escrowReleaseDate.After(createdAt) {
		return Transaction{}, domainerrors.ErrInvalidTransactionRequest
	}

	return Transaction{
		TransactionID:       transactionID,
		ProjectID:           projectID,
		BuyerID:             buyerID,
		SellerID:            sellerID,
		AcceptedOfferID:     acceptedOfferID,
		AmountCents:         amountCents,
		CommissionCents:     commissionCents,
		SellerReceivesCents: amountCents - commissionCents,
		PaymentStatus:       PaymentStatusPending,
		EscrowStatus:        EscrowStatusHeld,
		EscrowReleaseDate:   escrowReleaseDate.UTC(),
		CodeDeliveryStatus:  CodeDeliveryNotAccessed,
		CreatedAt:           createdAt.UTC(),
	}, nil
}

// IsParticipant reports whether the user may see the transaction.
func (t Transaction) IsParticipant(userID string) bool {
	return userID == t.BuyerID || userID == t.SellerID
}
