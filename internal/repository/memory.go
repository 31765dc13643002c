package repository

import (
	"context"
	"sync"
	"time"

	"parkwise/internal/models"
)

// MemoryStateRepository keeps wizard state in process memory. States are
// copied on the way in and out so concurrent callers never share a
// TempData map.
type MemoryStateRepository struct {
	mu         sync.Mutex
	states     map[int64]*models.WizardState
	rateLimits map[int64]rateLimitEntry
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		states:     make(map[int64]*models.WizardState),
		rateLimits: make(map[int64]rateLimitEntry),
		ttl:        ttl,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, userID int64) (*models.WizardState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.WizardState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.UserID] = state.Clone()
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry.count++
	}
	r.rateLimits[userID] = entry

	return entry.count <= limit, nil
}
