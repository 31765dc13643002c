package service

import (
	"context"
	"time"

	"parkwise/internal/domain"
	"parkwise/internal/events"
	"parkwise/internal/metrics"
	"parkwise/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

// CreateBooking persists a confirmed booking. The price breakdown is
// taken as-is; it was frozen at the payment step.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = models.StatusUpcoming
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return err
	}

	if err := s.repo.IncrementBookingCount(ctx, booking.UserID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", booking.UserID).Msg("failed to bump booking count")
	}

	s.publishEvent(events.EventBookingCreated, booking)
	s.enqueueSync(ctx, booking, "append", "")
	metrics.IncBooking("confirmed")

	return nil
}

// CancelBooking cancels an upcoming or ongoing booking owned by the
// user. History is append-only; the row is never deleted.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if booking.Status != models.StatusUpcoming && booking.Status != models.StatusOngoing {
		return nil, ErrNotCancellable
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.StatusCancelled

	s.publishEvent(events.EventBookingCancelled, booking)
	s.enqueueSync(ctx, booking, "update_status", models.StatusCancelled)
	metrics.IncBooking("cancelled")

	return booking, nil
}

// GetUserBookings lists the user's history, newest first, rolling
// time-derived statuses forward before returning. An empty status
// returns everything.
func (s *BookingService) GetUserBookings(ctx context.Context, userID int64, status string) ([]*models.Booking, error) {
	if err := s.refreshStatuses(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to refresh booking statuses")
	}
	return s.repo.GetUserBookings(ctx, userID, status)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	return s.repo.GetBookingByOrderID(ctx, orderID)
}

// GetUserBookingsInRange lists the user's bookings whose start time falls
// within [start, end], for ranged history exports.
func (s *BookingService) GetUserBookingsInRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Booking, error) {
	all, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Booking, 0, len(all))
	for _, b := range all {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// refreshStatuses advances upcoming bookings into ongoing and ongoing
// into completed based on the booked time window. Cancelled bookings
// are never touched.
func (s *BookingService) refreshStatuses(ctx context.Context, userID int64) error {
	bookings, err := s.repo.GetUserBookings(ctx, userID, "")
	if err != nil {
		return err
	}

	now := time.Now()
	for _, b := range bookings {
		if b.Status != models.StatusUpcoming && b.Status != models.StatusOngoing {
			continue
		}

		end := b.StartAt.Add(time.Duration(b.DurationHours) * time.Hour)
		var next string
		switch {
		case now.After(end):
			next = models.StatusCompleted
		case now.After(b.StartAt):
			next = models.StatusOngoing
		default:
			continue
		}
		if next == b.Status {
			continue
		}

		if err := s.repo.UpdateBookingStatus(ctx, b.ID, next); err != nil {
			return err
		}
		b.Status = next
		if next == models.StatusCompleted {
			s.publishEvent(events.EventBookingCompleted, b)
			s.enqueueSync(ctx, b, "update_status", next)
			metrics.IncBooking("completed")
		}
	}
	return nil
}

// SeedSampleHistory inserts demo history rows for a user with no
// bookings yet, so the history screen is never empty on first visit.
func (s *BookingService) SeedSampleHistory(ctx context.Context, userID int64) error {
	count, err := s.repo.CountBookings(ctx, userID)
	if err != nil || count > 0 {
		return err
	}

	now := time.Now()
	samples := []*models.Booking{
		{
			OrderID:         "PW-SAMPLE-1",
			UserID:          userID,
			FacilityID:      1,
			FacilityName:    "Downtown Garage",
			FacilityAddress: "123 Main St",
			OptionName:      "Covered Parking",
			VehicleType:     models.VehicleCar,
			VehicleNumber:   "IL-4821",
			StartAt:         now.AddDate(0, 0, -7),
			DurationHours:   5,
			BaseCents:       5500,
			DiscountCents:   550,
			TotalCents:      4950,
			Status:          models.StatusCompleted,
			Features:        models.Features{Covered: true, Surveillance: true},
		},
		{
			OrderID:         "PW-SAMPLE-2",
			UserID:          userID,
			FacilityID:      2,
			FacilityName:    "Riverside Lot",
			FacilityAddress: "9 Quay Rd",
			OptionName:      "Regular Parking",
			VehicleType:     models.VehicleBike,
			VehicleNumber:   "IL-0288",
			Scheduled:       true,
			StartAt:         now.AddDate(0, 0, 2),
			DurationHours:   2,
			BaseCents:       1320,
			SurchargeCents:  500,
			TotalCents:      1820,
			Status:          models.StatusUpcoming,
		},
	}

	for _, b := range samples {
		if err := s.repo.CreateBooking(ctx, b); err != nil {
			return err
		}
	}
	s.logger.Info().Int64("user_id", userID).Msg("seeded sample booking history")
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:    booking.ID,
		OrderID:      booking.OrderID,
		UserID:       booking.UserID,
		FacilityID:   booking.FacilityID,
		FacilityName: booking.FacilityName,
		VehicleType:  booking.VehicleType,
		Status:       booking.Status,
		TotalCents:   booking.TotalCents,
		StartAt:      booking.StartAt,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType, status string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
