package service

import (
	"context"

	"parkwise/internal/domain"
	"parkwise/internal/inventory"
	"parkwise/internal/models"

	"github.com/rs/zerolog"
)

// SavedService maintains the per-user saved facilities list.
type SavedService struct {
	repo    domain.Repository
	catalog *inventory.Catalog
	logger  *zerolog.Logger
}

func NewSavedService(repo domain.Repository, catalog *inventory.Catalog, logger *zerolog.Logger) *SavedService {
	return &SavedService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// Save stores the facility in the user's list. Saving a facility that
// is already saved succeeds without duplicating it.
func (s *SavedService) Save(ctx context.Context, userID, facilityID int64) error {
	facility, ok := s.catalog.FacilityByID(facilityID)
	if !ok {
		return ErrFacilityUnknown
	}
	return s.repo.SaveFacility(ctx, userID, &facility)
}

func (s *SavedService) Unsave(ctx context.Context, userID, facilityID int64) error {
	return s.repo.UnsaveFacility(ctx, userID, facilityID)
}

func (s *SavedService) IsSaved(ctx context.Context, userID, facilityID int64) (bool, error) {
	return s.repo.IsFacilitySaved(ctx, userID, facilityID)
}

func (s *SavedService) List(ctx context.Context, userID int64) ([]*models.Facility, error) {
	return s.repo.GetSavedFacilities(ctx, userID)
}

// Rate records a user rating for a facility. The catalog is immutable,
// so the rating is acknowledged and logged but never changes the listed
// aggregate.
func (s *SavedService) Rate(ctx context.Context, userID, facilityID int64, stars float64) error {
	if stars < 1 || stars > 5 {
		return ErrInvalidRating
	}
	if _, ok := s.catalog.FacilityByID(facilityID); !ok {
		return ErrFacilityUnknown
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("facility_id", facilityID).
		Float64("stars", stars).
		Msg("facility rated")
	return nil
}
