package pricing

import (
	"fmt"

	"parkwise/internal/models"
)

// Quote is the price breakdown for a booking. All amounts are in cents.
type Quote struct {
	RateCents      int64 `json:"rate_cents"`
	Hours          int64 `json:"hours"`
	BaseCents      int64 `json:"base_cents"`
	DiscountCents  int64 `json:"discount_cents"`
	SurchargeCents int64 `json:"surcharge_cents"`
	TotalCents     int64 `json:"total_cents"`
}

// Calculate applies the canonical pricing rules:
// base = rate * hours; long-stay discount at hours >= 4 (10% car, 15% bike);
// flat reservation surcharge in reserve mode.
func Calculate(rateCents, hours int64, vehicleType, mode string) (Quote, error) {
	if rateCents < 0 {
		return Quote{}, fmt.Errorf("negative rate: %d", rateCents)
	}
	if hours < 1 {
		return Quote{}, fmt.Errorf("duration must be at least 1 hour, got %d", hours)
	}
	if !models.IsValidVehicle(vehicleType) {
		return Quote{}, fmt.Errorf("unknown vehicle type: %q", vehicleType)
	}

	q := Quote{
		RateCents: rateCents,
		Hours:     hours,
		BaseCents: rateCents * hours,
	}

	if hours >= models.DiscountThresholdHours {
		pct := int64(models.CarDiscountPercent)
		if vehicleType == models.VehicleBike {
			pct = models.BikeDiscountPercent
		}
		q.DiscountCents = q.BaseCents * pct / 100
	}

	if mode == models.ModeReserve {
		q.SurchargeCents = models.ReserveSurchargeCents
	}

	q.TotalCents = q.BaseCents - q.DiscountCents + q.SurchargeCents
	return q, nil
}

// FormatCents renders a cent amount as a dollar string, e.g. 4950 -> "$49.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
