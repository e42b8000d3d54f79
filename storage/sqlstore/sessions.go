package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/gubbhockey/clubhouse/sessions"
)

var _ sessions.Repo = (*SessionRepo)(nil)

type SessionRepo struct {
	store *Store
}

func (r *SessionRepo) Create(ctx context.Context, session sessions.Session) error {
	if session.ID == uuid.Nil {
		return errors.Wrapf(errors.ErrPersistence, "[sqlstore Session Create] session id is required")
	}
	_, err := r.store.exec(ctx, `
INSERT INTO session (session_id, player_id, created_at, expires_at)
VALUES (?, ?, ?, ?)`,
		session.ID.String(), session.PlayerID, toMillis(session.CreatedAt), toMillis(session.ExpiresAt),
	)
	if err != nil {
		return persistenceErr("Session Create", err)
	}
	return nil
}

func (r *SessionRepo) GetPlayer(ctx context.Context, id uuid.UUID, now time.Time) (*players.Player, error) {
	row := r.store.queryRow(ctx, `
SELECT p.player_id, p.name, p.given_name, p.family_name, p.email, p.access_group, p.is_goalkeeper
FROM session s
JOIN player p ON p.player_id = s.player_id
WHERE s.session_id = ? AND s.expires_at > ?`,
		id.String(), toMillis(now),
	)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("Session GetPlayer", err)
	}
	return p, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.store.exec(ctx, `DELETE FROM session WHERE session_id = ?`, id.String()); err != nil {
		return persistenceErr("Session Delete", err)
	}
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.store.exec(ctx, `DELETE FROM session WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, persistenceErr("Session DeleteExpired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistenceErr("Session DeleteExpired", err)
	}
	return n, nil
}
