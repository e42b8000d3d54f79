package pkce

import (
	"context"
	"time"
)

// PendingAuth binds the CSRF (state) token of an in-flight login to the
// PKCE verifier whose challenge was sent to the provider.
type PendingAuth struct {
	CSRFToken    string
	PKCEVerifier string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Live reports whether the entry is still usable at now.
func (p PendingAuth) Live(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

type Repo interface {
	// Put stores a pending login. If a live entry already exists for the
	// same CSRF token it is kept and the call is a no-op; an expired entry
	// is replaced.
	Put(ctx context.Context, pending PendingAuth) error

	// Get returns the live entry for csrfToken, or errors.ErrNotFound when
	// the token is unknown or expired at now. Reads do not consume the entry.
	Get(ctx context.Context, csrfToken string, now time.Time) (PendingAuth, error)

	// DeleteExpired removes every entry whose expiry is at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
