package service

import (
	"context"
	"errors"
	"time"

	"parkwise/internal/config"
	"parkwise/internal/database"
	"parkwise/internal/domain"
	"parkwise/internal/events"
	"parkwise/internal/models"

	"github.com/rs/zerolog"
)

// UserService manages the demo profile. Sign-in never checks
// credentials; the first sign-in materializes the profile from config.
type UserService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	demo     config.DemoConfig
	logger   *zerolog.Logger
}

func NewUserService(repo domain.Repository, eventBus domain.EventPublisher, demo config.DemoConfig, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		eventBus: eventBus,
		demo:     demo,
		logger:   logger,
	}
}

// SignIn marks the user as signed in, creating the demo profile when it
// does not exist yet. It always succeeds for a valid user id.
func (s *UserService) SignIn(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		user = &models.User{
			ID:          userID,
			Name:        s.demo.Name,
			Phone:       s.demo.Phone,
			Email:       s.demo.Email,
			Rating:      s.demo.Rating,
			MemberSince: s.demo.MemberSince,
			CreatedAt:   time.Now(),
		}
	} else if err != nil {
		return nil, err
	}

	user.SignedIn = true
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	s.publishUserEvent(events.EventUserSignedIn, userID)
	s.logger.Info().Int64("user_id", userID).Msg("user signed in")

	return user, nil
}

func (s *UserService) SignOut(ctx context.Context, userID int64) error {
	err := s.repo.SetUserSignedIn(ctx, userID, false)
	if errors.Is(err, database.ErrNotFound) {
		// Signing out a user that never signed in is a no-op.
		return nil
	}
	if err != nil {
		return err
	}

	s.publishUserEvent(events.EventUserSignedOut, userID)
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// IsSignedIn reports whether the user exists and is currently signed in.
func (s *UserService) IsSignedIn(ctx context.Context, userID int64) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.SignedIn, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, name, phone, email, avatarURL string) (*models.User, error) {
	if err := s.repo.UpdateUserProfile(ctx, userID, name, phone, email, avatarURL); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, userID)
}

func (s *UserService) publishUserEvent(eventType string, userID int64) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, map[string]int64{"user_id": userID}); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
