package models

const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	VehicleCar  = "car"
	VehicleBike = "bike"
)

const (
	OptionRegular = "regular"
	OptionCovered = "covered"
	OptionValet   = "valet"
)

const (
	StepSearch       = "search"
	StepLoading      = "loading"
	StepSpots        = "spots"
	StepOptions      = "options"
	StepPayment      = "payment"
	StepConfirmation = "confirmation"
)

const (
	ModeNow     = "now"
	ModeReserve = "reserve"
)

const (
	// DiscountThresholdHours minimum duration for the long-stay discount
	DiscountThresholdHours = 4

	// CarDiscountPercent / BikeDiscountPercent long-stay discount rates
	CarDiscountPercent  = 10
	BikeDiscountPercent = 15

	// ReserveSurchargeCents flat surcharge for scheduled ("reserve") bookings
	ReserveSurchargeCents = 500
)

// ValidStatuses lists booking statuses accepted by history filters.
var ValidStatuses = []string{StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled}

// IsValidStatus reports whether s is a known booking status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidVehicle reports whether v is a supported vehicle type.
func IsValidVehicle(v string) bool {
	return v == VehicleCar || v == VehicleBike
}
