package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps sessions in a map and resolves players through the
// given players.Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
	players  players.Repo
}

func NewInMemoryRepo(playerRepo players.Repo) *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[uuid.UUID]Session),
		players:  playerRepo,
	}
}

func (r *InMemoryRepo) Create(ctx context.Context, session Session) error {
	if session.ID == uuid.Nil {
		return errors.Wrapf(errors.ErrPersistence, "[sessions Create] session id is required")
	}
	if _, err := r.players.GetByID(ctx, session.PlayerID); err != nil {
		return errors.Wrapf(errors.ErrPersistence, "[sessions Create] unknown player %d", session.PlayerID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return errors.Wrapf(errors.ErrPersistence, "[sessions Create] duplicate session id")
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *InMemoryRepo) GetPlayer(ctx context.Context, id uuid.UUID, now time.Time) (*players.Player, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || !session.Live(now) {
		return nil, errors.ErrNotFound
	}
	return r.players.GetByID(ctx, session.PlayerID)
}

func (r *InMemoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, session := range r.sessions {
		if !session.Live(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
