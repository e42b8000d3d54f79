package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/pkce"
	"github.com/redis/go-redis/v9"
)

const pkcePrefix = "pkce:"

var _ pkce.Repo = (*PKCEStore)(nil)

// PKCEStore keeps pending logins in Redis. Entries carry a TTL equal to
// their lifetime, so Redis evicts them without a sweep.
type PKCEStore struct {
	client *redis.Client
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrConfiguration, err), "[redisstore Connect] parse REDIS_URL")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[redisstore Connect] ping")
	}
	return client, nil
}

func NewPKCEStore(client *redis.Client) *PKCEStore {
	return &PKCEStore{client: client}
}

func key(csrfToken string) string {
	return pkcePrefix + csrfToken
}

type pendingRecord struct {
	CSRFToken    string `json:"csrf_token"`
	PKCEVerifier string `json:"pkce_verifier"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    int64  `json:"expires_at"`
}

func encodePending(p pkce.PendingAuth) ([]byte, error) {
	return json.Marshal(pendingRecord{
		CSRFToken:    p.CSRFToken,
		PKCEVerifier: p.PKCEVerifier,
		CreatedAt:    p.CreatedAt.UTC().UnixMilli(),
		ExpiresAt:    p.ExpiresAt.UTC().UnixMilli(),
	})
}

func decodePending(data []byte) (pkce.PendingAuth, error) {
	var rec pendingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return pkce.PendingAuth{}, fmt.Errorf("decode pending auth: %w", err)
	}
	return pkce.PendingAuth{
		CSRFToken:    rec.CSRFToken,
		PKCEVerifier: rec.PKCEVerifier,
		CreatedAt:    time.UnixMilli(rec.CreatedAt).UTC(),
		ExpiresAt:    time.UnixMilli(rec.ExpiresAt).UTC(),
	}, nil
}

// Put uses SETNX so a retried insert never replaces a live entry.
func (s *PKCEStore) Put(ctx context.Context, pending pkce.PendingAuth) error {
	if pending.CSRFToken == "" {
		return errors.Wrapf(errors.ErrPersistence, "[redisstore PKCE Put] csrf token cannot be empty")
	}
	ttl := pending.ExpiresAt.Sub(pending.CreatedAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := encodePending(pending)
	if err != nil {
		return errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[redisstore PKCE Put]")
	}
	if err := s.client.SetNX(ctx, key(pending.CSRFToken), payload, ttl).Err(); err != nil {
		return errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[redisstore PKCE Put]")
	}
	return nil
}

func (s *PKCEStore) Get(ctx context.Context, csrfToken string, now time.Time) (pkce.PendingAuth, error) {
	val, err := s.client.Get(ctx, key(csrfToken)).Bytes()
	if err == redis.Nil {
		return pkce.PendingAuth{}, errors.ErrNotFound
	}
	if err != nil {
		return pkce.PendingAuth{}, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[redisstore PKCE Get]")
	}

	pending, err := decodePending(val)
	if err != nil {
		return pkce.PendingAuth{}, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[redisstore PKCE Get]")
	}
	if !pending.Live(now) {
		return pkce.PendingAuth{}, errors.ErrNotFound
	}
	return pending, nil
}

// DeleteExpired is a no-op; Redis expires keys itself.
func (s *PKCEStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
