package auth

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	SessionCookieName = "session_id"

	cookieKeyInfo = "gubbhockey session cookie v1"
)

// CookieCodec builds and parses the session cookie. With a secret the
// value is an HS256 JWT whose jti is the session id; without one it is the
// bare session id.
type CookieCodec struct {
	key    []byte
	secure bool
	maxAge time.Duration
}

func NewCookieCodec(secret string, secure bool, maxAge time.Duration) (*CookieCodec, error) {
	if maxAge <= 0 {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[NewCookieCodec] max age must be positive")
	}
	c := &CookieCodec{secure: secure, maxAge: maxAge}
	if secret == "" {
		return c, nil
	}

	c.key = make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(cookieKeyInfo)), c.key); err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrConfiguration, err), "[NewCookieCodec] derive key")
	}
	return c, nil
}

// Signed reports whether cookie values are signed.
func (c *CookieCodec) Signed() bool {
	return len(c.key) > 0
}

func (c *CookieCodec) Build(sessionID uuid.UUID, now time.Time) (*http.Cookie, error) {
	value, err := c.encode(sessionID, now)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.maxAge.Seconds()),
	}, nil
}

// Clear returns a cookie that makes the browser drop the session cookie.
func (c *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

func (c *CookieCodec) encode(sessionID uuid.UUID, now time.Time) (string, error) {
	if !c.Signed() {
		return sessionID.String(), nil
	}
	claims := jwt.RegisteredClaims{
		ID:        sessionID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("[CookieCodec Build] sign: %w", err)
	}
	return signed, nil
}

// Parse recovers the session id from a cookie value. Any malformed,
// tampered or expired value yields ErrInvalidSessionFormat.
func (c *CookieCodec) Parse(value string, now time.Time) (uuid.UUID, error) {
	raw := value
	if c.Signed() {
		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
			return c.key, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(func() time.Time { return now }),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			return uuid.Nil, errors.Wrapf(errors.ErrInvalidSessionFormat, "[CookieCodec Parse] %v", err)
		}
		raw = claims.ID
	}

	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errors.Wrapf(errors.ErrInvalidSessionFormat, "[CookieCodec Parse] %q is not a session id", truncate(raw, 64))
	}
	return id, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
