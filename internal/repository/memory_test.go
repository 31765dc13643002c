package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"parkwise/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := &models.WizardState{
			UserID: 1,
			Step:   models.StepOptions,
			TempData: map[string]interface{}{
				"facility_id": int64(3),
			},
		}

		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StepOptions, got.Step)
	})

	t.Run("GetNonExistentState", func(t *testing.T) {
		got, err := repo.GetState(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearState", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, &models.WizardState{UserID: 2}))
		require.NoError(t, repo.ClearState(ctx, 2))

		got, err := repo.GetState(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(7)
		limit := 3
		window := 50 * time.Millisecond

		for i := 0; i < limit; i++ {
			allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		time.Sleep(window + 10*time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("StateCopiedOnGetAndSet", func(t *testing.T) {
		original := &models.WizardState{
			UserID:   9,
			Step:     models.StepSpots,
			TempData: map[string]interface{}{"city": "Chicago"},
		}
		require.NoError(t, repo.SetState(ctx, original))

		original.Set("city", "Denver")

		first, err := repo.GetState(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "Chicago", first.GetString("city"))

		first.Set("city", "Austin")

		second, err := repo.GetState(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "Chicago", second.GetString("city"))
	})
}

func TestMemoryStateRepositoryConcurrentRateLimit(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	const (
		goroutines = 8
		perWorker  = 50
	)
	limit := goroutines * perWorker

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := repo.CheckRateLimit(ctx, 1, limit, time.Hour)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	// Every concurrent increment must have landed: the next call is
	// number limit+1 and gets rejected.
	allowed, err := repo.CheckRateLimit(ctx, 1, limit, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestMemoryStateRepositoryConcurrentStateAccess(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SetState(ctx, &models.WizardState{
		UserID:   1,
		Step:     models.StepSearch,
		TempData: map[string]interface{}{"city": "Chicago"},
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				state, err := repo.GetState(ctx, 1)
				assert.NoError(t, err)
				if state == nil {
					continue
				}
				state.Set("facility_id", int64(n))
				assert.NoError(t, repo.SetState(ctx, state))
			}
		}(i)
	}
	wg.Wait()

	state, err := repo.GetState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "Chicago", state.GetString("city"))
}
