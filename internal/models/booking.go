package models

import "time"

// Booking is a finalized reservation. The price breakdown is computed
// once at confirmation and never recomputed afterwards.
type Booking struct {
	ID              int64     `json:"id"`
	OrderID         string    `json:"order_id"`
	UserID          int64     `json:"user_id"`
	FacilityID      int64     `json:"facility_id"`
	FacilityName    string    `json:"facility_name"`
	FacilityAddress string    `json:"facility_address"`
	OptionName      string    `json:"option_name"`
	VehicleType     string    `json:"vehicle_type"`
	VehicleNumber   string    `json:"vehicle_number"`
	Scheduled       bool      `json:"scheduled"`
	StartAt         time.Time `json:"start_at"`
	DurationHours   int64     `json:"duration_hours"`
	BaseCents       int64     `json:"base_cents"`
	DiscountCents   int64     `json:"discount_cents"`
	SurchargeCents  int64     `json:"surcharge_cents"`
	TotalCents      int64     `json:"total_cents"`
	Status          string    `json:"status"` // upcoming, ongoing, completed, cancelled
	Features        Features  `json:"features"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
