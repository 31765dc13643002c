package service

import (
	"context"
	"testing"

	"parkwise/internal/config"
	"parkwise/internal/database"
	"parkwise/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testDemo = config.DemoConfig{
	Name:        "John Doe",
	Phone:       "+1 555 0100",
	Email:       "john@example.com",
	Rating:      4.9,
	MemberSince: "April 2025",
}

func TestSignInCreatesDemoProfile(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewUserService(repo, nil, testDemo, &logger)
	ctx := context.Background()

	repo.On("GetUser", ctx, int64(1)).Return(nil, database.ErrNotFound).Once()

	var saved *models.User
	repo.On("UpsertUser", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.User)
		}).Return(nil).Once()

	user, err := svc.SignIn(ctx, 1)
	require.NoError(t, err)
	assert.True(t, user.SignedIn)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, 4.9, user.Rating)
	assert.Equal(t, "April 2025", user.MemberSince)
	assert.Equal(t, user, saved)

	repo.AssertExpectations(t)
}

func TestSignInExistingUser(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewUserService(repo, nil, testDemo, &logger)
	ctx := context.Background()

	existing := &models.User{ID: 1, Name: "Jane", BookingCount: 7}
	repo.On("GetUser", ctx, int64(1)).Return(existing, nil).Once()
	repo.On("UpsertUser", ctx, existing).Return(nil).Once()

	user, err := svc.SignIn(ctx, 1)
	require.NoError(t, err)
	assert.True(t, user.SignedIn)
	// Existing profile is kept, not replaced by demo defaults.
	assert.Equal(t, "Jane", user.Name)
	assert.Equal(t, int64(7), user.BookingCount)
}

func TestSignOut(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewUserService(repo, nil, testDemo, &logger)
	ctx := context.Background()

	repo.On("SetUserSignedIn", ctx, int64(1), false).Return(nil).Once()
	require.NoError(t, svc.SignOut(ctx, 1))

	// Signing out an unknown user is a no-op, not an error.
	repo.On("SetUserSignedIn", ctx, int64(2), false).Return(database.ErrNotFound).Once()
	require.NoError(t, svc.SignOut(ctx, 2))
}

func TestIsSignedIn(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewUserService(repo, nil, testDemo, &logger)
	ctx := context.Background()

	repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, SignedIn: true}, nil).Once()
	ok, err := svc.IsSignedIn(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	repo.On("GetUser", ctx, int64(2)).Return(nil, database.ErrNotFound).Once()
	ok, err = svc.IsSignedIn(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewUserService(repo, nil, testDemo, &logger)
	ctx := context.Background()

	repo.On("UpdateUserProfile", ctx, int64(1), "Jane", "+1", "j@e.com", "").Return(nil).Once()
	repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, Name: "Jane"}, nil).Once()

	user, err := svc.UpdateProfile(ctx, 1, "Jane", "+1", "j@e.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)
}
