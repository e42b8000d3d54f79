package pkce

import (
	"context"
	"sync"
	"time"

	"github.com/gubbhockey/clubhouse/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.RWMutex
	pending map[string]PendingAuth
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		pending: make(map[string]PendingAuth),
	}
}

func (r *InMemoryRepo) Put(_ context.Context, pending PendingAuth) error {
	if pending.CSRFToken == "" {
		return errors.Wrapf(errors.ErrPersistence, "[pkce Put] csrf token cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pending[pending.CSRFToken]; ok && existing.Live(pending.CreatedAt) {
		return nil
	}
	r.pending[pending.CSRFToken] = pending
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, csrfToken string, now time.Time) (PendingAuth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending, ok := r.pending[csrfToken]
	if !ok || !pending.Live(now) {
		return PendingAuth{}, errors.ErrNotFound
	}
	return pending, nil
}

func (r *InMemoryRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for token, pending := range r.pending {
		if !pending.Live(now) {
			delete(r.pending, token)
			removed++
		}
	}
	return removed, nil
}
