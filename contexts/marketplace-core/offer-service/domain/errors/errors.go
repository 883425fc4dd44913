package errors

import "errors"

// Validation failures: the request breaks a business rule and the caller can
// correct the input.
var (
	ErrInvalidOfferRequest      = errors.New("invalid offer request")
	ErrProjectNotActive         = errors.New("project is not accepting offers")
	ErrSelfOffer                = errors.New("cannot make an offer on your own project")
	ErrPriceBelowFloor          = errors.New("offer price is below the marketplace minimum")
	ErrPriceBelowProjectMinimum = errors.New("offer price is below the project's minimum offer")
	ErrPriceNotBelowListing     = errors.New("offer price must be below the listing price")
	ErrDuplicateActiveOffer     = errors.New("an active offer already exists for this project")
	ErrOfferNotPending          = errors.New("offer is no longer pending")
	ErrInvalidListFilter        = errors.New("invalid list filter")
)

// Permission failures: the acting user is not entitled to this transition.
var (
	ErrNotProjectSeller  = errors.New("only the project seller may counter this offer")
	ErrNotOfferResponder = errors.New("user may not accept or reject this offer")
	ErrNotOfferOwner     = errors.New("user may not withdraw this offer")
)

// Not-found failures: the entity does not exist or is not visible to the
// caller. Offers are scoped to their buyer and seller.
var (
	ErrOfferNotFound   = errors.New("offer not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")
)
