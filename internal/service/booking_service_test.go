package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"parkwise/internal/events"
	"parkwise/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingPublishesAndSyncs(t *testing.T) {
	repo := new(mockRepo)
	worker := new(mockSyncWorker)
	bus := events.NewEventBus()
	logger := zerolog.Nop()
	svc := NewBookingService(repo, bus, worker, &logger)
	ctx := context.Background()

	var published events.BookingEventPayload
	bus.Subscribe(events.EventBookingCreated, func(e *events.Event) error {
		return json.Unmarshal(e.Payload, &published)
	})

	booking := &models.Booking{OrderID: "PW-1", UserID: 1, TotalCents: 4950}
	repo.On("CreateBooking", ctx, booking).Return(nil).Once()
	repo.On("IncrementBookingCount", ctx, int64(1)).Return(nil).Once()
	worker.On("EnqueueTask", ctx, "append", booking, "").Return(nil).Once()

	require.NoError(t, svc.CreateBooking(ctx, booking))
	assert.Equal(t, models.StatusUpcoming, booking.Status)
	assert.Equal(t, "PW-1", published.OrderID)

	repo.AssertExpectations(t)
	worker.AssertExpectations(t)
}

func TestCancelBooking(t *testing.T) {
	repo := new(mockRepo)
	worker := new(mockSyncWorker)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, worker, &logger)
	ctx := context.Background()

	booking := &models.Booking{ID: 5, UserID: 1, Status: models.StatusUpcoming}
	repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()
	repo.On("UpdateBookingStatus", ctx, int64(5), models.StatusCancelled).Return(nil).Once()
	worker.On("EnqueueTask", ctx, "update_status", mock.Anything, models.StatusCancelled).Return(nil).Once()

	got, err := svc.CancelBooking(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	repo.AssertExpectations(t)
	worker.AssertExpectations(t)
}

func TestCancelBookingWrongOwner(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, nil, &logger)
	ctx := context.Background()

	booking := &models.Booking{ID: 5, UserID: 2, Status: models.StatusUpcoming}
	repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()

	_, err := svc.CancelBooking(ctx, 1, 5)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelBookingNotCancellable(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, nil, &logger)
	ctx := context.Background()

	for _, status := range []string{models.StatusCompleted, models.StatusCancelled} {
		booking := &models.Booking{ID: 5, UserID: 1, Status: status}
		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()

		_, err := svc.CancelBooking(ctx, 1, 5)
		assert.ErrorIs(t, err, ErrNotCancellable)
	}
}

func TestGetUserBookingsRollsStatusesForward(t *testing.T) {
	repo := new(mockRepo)
	worker := new(mockSyncWorker)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, worker, &logger)
	ctx := context.Background()
	now := time.Now()

	past := &models.Booking{ID: 1, UserID: 1, Status: models.StatusUpcoming,
		StartAt: now.Add(-3 * time.Hour), DurationHours: 2}
	active := &models.Booking{ID: 2, UserID: 1, Status: models.StatusUpcoming,
		StartAt: now.Add(-time.Hour), DurationHours: 4}
	future := &models.Booking{ID: 3, UserID: 1, Status: models.StatusUpcoming,
		StartAt: now.Add(time.Hour), DurationHours: 2}
	cancelled := &models.Booking{ID: 4, UserID: 1, Status: models.StatusCancelled,
		StartAt: now.Add(-10 * time.Hour), DurationHours: 1}

	all := []*models.Booking{past, active, future, cancelled}
	repo.On("GetUserBookings", ctx, int64(1), "").Return(all, nil)
	repo.On("UpdateBookingStatus", ctx, int64(1), models.StatusCompleted).Return(nil).Once()
	repo.On("UpdateBookingStatus", ctx, int64(2), models.StatusOngoing).Return(nil).Once()
	worker.On("EnqueueTask", ctx, "update_status", mock.Anything, models.StatusCompleted).Return(nil).Once()

	got, err := svc.GetUserBookings(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, models.StatusCompleted, past.Status)
	assert.Equal(t, models.StatusOngoing, active.Status)
	assert.Equal(t, models.StatusUpcoming, future.Status)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	repo.AssertExpectations(t)
}

func TestGetUserBookingsInRange(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, nil, &logger)
	ctx := context.Background()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mine := &models.Booking{ID: 1, UserID: 1, StartAt: from.AddDate(0, 0, 3)}
	theirs := &models.Booking{ID: 2, UserID: 2, StartAt: from.AddDate(0, 0, 5)}
	repo.On("GetBookingsByDateRange", ctx, from, to).
		Return([]*models.Booking{mine, theirs}, nil).Once()

	got, err := svc.GetUserBookingsInRange(ctx, 1, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	repo.AssertExpectations(t)
}

func TestSeedSampleHistory(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, nil, &logger)
	ctx := context.Background()

	repo.On("CountBookings", ctx, int64(1)).Return(int64(0), nil).Once()
	repo.On("CreateBooking", ctx, mock.AnythingOfType("*models.Booking")).Return(nil).Twice()

	require.NoError(t, svc.SeedSampleHistory(ctx, 1))
	repo.AssertExpectations(t)
}

func TestSeedSampleHistorySkipsExisting(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, nil, &logger)
	ctx := context.Background()

	repo.On("CountBookings", ctx, int64(1)).Return(int64(3), nil).Once()

	require.NoError(t, svc.SeedSampleHistory(ctx, 1))
	repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}
