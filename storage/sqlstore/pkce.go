package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/pkce"
)

var _ pkce.Repo = (*PKCERepo)(nil)

type PKCERepo struct {
	store *Store
}

// Put only replaces an existing row once it has expired, so a retried
// insert never clobbers a live verifier.
func (r *PKCERepo) Put(ctx context.Context, pending pkce.PendingAuth) error {
	if pending.CSRFToken == "" {
		return errors.Wrapf(errors.ErrPersistence, "[sqlstore PKCE Put] csrf token cannot be empty")
	}
	_, err := r.store.exec(ctx, `
INSERT INTO pkce_store (csrf_token, pkce_verifier, created_at, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (csrf_token) DO UPDATE SET
    pkce_verifier = excluded.pkce_verifier,
    created_at = excluded.created_at,
    expires_at = excluded.expires_at
WHERE pkce_store.expires_at <= excluded.created_at`,
		pending.CSRFToken, pending.PKCEVerifier, toMillis(pending.CreatedAt), toMillis(pending.ExpiresAt),
	)
	if err != nil {
		return persistenceErr("PKCE Put", err)
	}
	return nil
}

func (r *PKCERepo) Get(ctx context.Context, csrfToken string, now time.Time) (pkce.PendingAuth, error) {
	var (
		pending            pkce.PendingAuth
		created, expiresAt int64
	)
	err := r.store.queryRow(ctx, `
SELECT csrf_token, pkce_verifier, created_at, expires_at
FROM pkce_store
WHERE csrf_token = ? AND expires_at > ?`,
		csrfToken, toMillis(now),
	).Scan(&pending.CSRFToken, &pending.PKCEVerifier, &created, &expiresAt)
	if err == sql.ErrNoRows {
		return pkce.PendingAuth{}, errors.ErrNotFound
	}
	if err != nil {
		return pkce.PendingAuth{}, persistenceErr("PKCE Get", err)
	}
	pending.CreatedAt = fromMillis(created)
	pending.ExpiresAt = fromMillis(expiresAt)
	return pending, nil
}

func (r *PKCERepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.store.exec(ctx, `DELETE FROM pkce_store WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, persistenceErr("PKCE DeleteExpired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistenceErr("PKCE DeleteExpired", err)
	}
	return n, nil
}
