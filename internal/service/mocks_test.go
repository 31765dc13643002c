package service

import (
	"context"
	"time"

	"parkwise/internal/inventory"
	"parkwise/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, userID int64, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, s, e time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *mockRepo) CountBookings(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) SaveFacility(ctx context.Context, userID int64, f *models.Facility) error {
	return m.Called(ctx, userID, f).Error(0)
}
func (m *mockRepo) UnsaveFacility(ctx context.Context, userID, facilityID int64) error {
	return m.Called(ctx, userID, facilityID).Error(0)
}
func (m *mockRepo) IsFacilitySaved(ctx context.Context, userID, facilityID int64) (bool, error) {
	args := m.Called(ctx, userID, facilityID)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) GetSavedFacilities(ctx context.Context, userID int64) ([]*models.Facility, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Facility), args.Error(1)
}

func (m *mockRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) UpsertUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) SetUserSignedIn(ctx context.Context, id int64, signedIn bool) error {
	return m.Called(ctx, id, signedIn).Error(0)
}
func (m *mockRepo) UpdateUserProfile(ctx context.Context, id int64, name, phone, email, avatarURL string) error {
	return m.Called(ctx, id, name, phone, email, avatarURL).Error(0)
}
func (m *mockRepo) IncrementBookingCount(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}
func (m *mockRepo) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncTask), args.Error(1)
}
func (m *mockRepo) UpdateSyncTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetry *time.Time) error {
	return m.Called(ctx, id, status, lastError, nextRetry).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking, status string) error {
	return m.Called(ctx, taskType, booking, status).Error(0)
}

const testInventoryYAML = `
cities:
  - name: Chicago
    facilities:
      - id: 1
        name: Downtown Garage
        address: 123 Main St
        distance: 0.3 mi
        rating: 4.8
        car_rate: 1100
        bike_rate: 660
        features:
          surveillance: true
          ev_charging: true
        options:
          - id: regular
            name: Regular Parking
            car_rate: 1100
            bike_rate: 660
            car_spots: 12
            bike_spots: 6
          - id: covered
            name: Covered Parking
            car_rate: 1500
            bike_rate: 800
            car_spots: 4
            bike_spots: 0
            features:
              covered: true
              surveillance: true
      - id: 2
        name: Riverside Lot
        address: 9 Quay Rd
        distance: 1.1 mi
        rating: 4.2
        car_rate: 700
        bike_rate: 300
        options:
          - id: valet
            name: Valet
            car_rate: 2000
            bike_rate: 900
            car_spots: 0
            bike_spots: 0
  - name: Denver
    facilities:
      - id: 3
        name: Union Station Garage
        address: 1701 Wynkoop St
        distance: 0.5 mi
        rating: 4.5
        car_rate: 900
        bike_rate: 400
        options:
          - id: regular
            name: Regular Parking
            car_rate: 900
            bike_rate: 400
            car_spots: 20
            bike_spots: 10
`

func newTestCatalog() *inventory.Catalog {
	catalog, err := inventory.Parse([]byte(testInventoryYAML))
	if err != nil {
		panic(err)
	}
	return catalog
}
