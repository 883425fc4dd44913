package errors

import "errors"

// Validation failures.
var (
	ErrInvalidTransactionRequest = errors.New("invalid transaction request")
	ErrProjectNotPurchasable     = errors.New("project is not available for purchase")
	ErrSelfPurchase              = errors.New("cannot purchase your own project")
	ErrProjectAlreadyPurchased   = errors.New("project already purchased by this buyer")
	ErrOfferNotSettleable        = errors.New("offer is not an accepted offer for this purchase")
	ErrPaymentNotSucceeded       = errors.New("payment has not succeeded")
	ErrPaymentAlreadySettled     = errors.New("payment result already recorded")
	ErrEscrowDisputed            = errors.New("escrow is under dispute")
	ErrEscrowAlreadyReleased     = errors.New("escrow already released")
	ErrTransactionConflict       = errors.New("transaction state changed concurrently")
	ErrInvalidListFilter         = errors.New("invalid list filter")
)

// Permission failures.
var (
	ErrNotTransactionBuyer       = errors.New("only the buyer may access the code")
	ErrNotTransactionParticipant = errors.New("user is not a party to this transaction")
)

// Not-found failures.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrOfferNotFound       = errors.New("offer not found")
	ErrUserNotFound        = errors.New("user not found")
)
