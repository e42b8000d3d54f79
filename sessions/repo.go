package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/players"
)

// Repo defines the interface for session storage operations.
// Expired sessions are ignored by lookups and removed by DeleteExpired.
type Repo interface {
	Create(ctx context.Context, session Session) error

	// GetPlayer joins the session with its player. It returns
	// errors.ErrNotFound when the session is unknown or expired at now.
	GetPlayer(ctx context.Context, id uuid.UUID, now time.Time) (*players.Player, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
