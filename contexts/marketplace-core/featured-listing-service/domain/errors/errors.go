package domainerrors

import "errors"

// Validation failures.
var (
	ErrInvalidFeaturedRequest = errors.New("featured request is invalid")
	ErrInvalidFeaturedTier    = errors.New("featured duration is not an allowed tier")
	ErrProjectNotActive       = errors.New("project is not active")
	ErrPlacementNotActive     = errors.New("featured placement is not active")
)

// Permission failures.
var (
	ErrNotProjectSeller = errors.New("caller is not the project seller")
)

// Not-found failures.
var (
	ErrProjectNotFound = errors.New("project not found")
)
