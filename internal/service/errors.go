package service

import "errors"

var (
	// ErrUnknownCity is returned when search names a city outside the
	// inventory. There is no fallback city.
	ErrUnknownCity = errors.New("unknown city")

	ErrInvalidVehicle  = errors.New("invalid vehicle type")
	ErrInvalidMode     = errors.New("invalid booking mode")
	ErrInvalidStep     = errors.New("operation not allowed at current step")
	ErrNoActiveWizard  = errors.New("no active booking session")
	ErrFacilityUnknown = errors.New("facility not found")
	ErrOptionUnknown   = errors.New("option not found")
	ErrPastStart       = errors.New("start time must be in the future")
	ErrDurationRange   = errors.New("duration out of range")

	// ErrSignInRequired guards the payment step.
	ErrSignInRequired = errors.New("sign in required")
	// ErrVehicleNumberRequired guards the payment step.
	ErrVehicleNumberRequired = errors.New("vehicle number required")

	// ErrModeSwitchNeedsReset is returned when switching between instant
	// and scheduled booking would discard selections and force was not set.
	ErrModeSwitchNeedsReset = errors.New("mode switch discards current selection")

	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrRateLimited    = errors.New("too many requests")
	ErrNotCancellable = errors.New("booking can no longer be cancelled")
	ErrNotOwner       = errors.New("booking belongs to another user")
)
