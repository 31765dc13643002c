package domain

import (
	"context"
	"time"

	"parkwise/internal/models"
)

// Repository is the persistent store behind booking history, saved
// facilities and user profiles.
type Repository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByOrderID(ctx context.Context, orderID string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64, status string) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	CountBookings(ctx context.Context, userID int64) (int64, error)

	SaveFacility(ctx context.Context, userID int64, facility *models.Facility) error
	UnsaveFacility(ctx context.Context, userID, facilityID int64) error
	IsFacilitySaved(ctx context.Context, userID, facilityID int64) (bool, error)
	GetSavedFacilities(ctx context.Context, userID int64) ([]*models.Facility, error)

	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
	SetUserSignedIn(ctx context.Context, id int64, signedIn bool) error
	UpdateUserProfile(ctx context.Context, id int64, name, phone, email, avatarURL string) error
	IncrementBookingCount(ctx context.Context, id int64) error

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetry *time.Time) error
}

// StateRepository stores wizard session state keyed by user.
type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.WizardState, error)
	SetState(ctx context.Context, state *models.WizardState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// StateManager is the service-level view of wizard state access.
type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.WizardState, error)
	SetUserState(ctx context.Context, state *models.WizardState) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// EventPublisher publishes domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter mirrors the booking ledger to a spreadsheet.
type SheetsWriter interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, orderID, status string) error
}

// SyncWorker queues booking mirror tasks for asynchronous delivery.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking, status string) error
}
