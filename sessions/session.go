package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Session binds an opaque bearer id to a player until ExpiresAt.
type Session struct {
	ID        uuid.UUID // Random UUIDv4, the only credential the browser holds
	PlayerID  int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the session is still valid at now.
func (s Session) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
