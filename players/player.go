package players

import "strings"

// AccessGroup is the role string gating admin-only operations.
type AccessGroup string

const (
	AccessGroupUser       AccessGroup = "user"
	AccessGroupAdmin      AccessGroup = "admin"
	AccessGroupSuperAdmin AccessGroup = "super-admin"
)

// Valid reports whether g is one of the known access groups.
func (g AccessGroup) Valid() bool {
	switch g {
	case AccessGroupUser, AccessGroupAdmin, AccessGroupSuperAdmin:
		return true
	}
	return false
}

// Player is a club member. Email is unique across all players.
type Player struct {
	ID           int64        `json:"player_id"`
	Name         string       `json:"name"`
	GivenName    string       `json:"given_name"`
	FamilyName   string       `json:"family_name"`
	Email        string       `json:"email"`
	AccessGroup  *AccessGroup `json:"access_group"` // nil when never assigned
	IsGoalkeeper bool         `json:"is_goalkeeper"`
}

// IsAdmin is true only for the exact "admin" access group. "super-admin"
// is not treated as admin.
func (p *Player) IsAdmin() bool {
	return p != nil && p.AccessGroup != nil && *p.AccessGroup == AccessGroupAdmin
}

// Group returns the access group or "" when unset.
func (p *Player) Group() AccessGroup {
	if p == nil || p.AccessGroup == nil {
		return ""
	}
	return *p.AccessGroup
}

// Profile is the identity returned by the provider's userinfo endpoint.
type Profile struct {
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
}

// NormalizeEmail lower-cases and trims an email so that repeated logins
// with different casing resolve to the same player.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Group(g AccessGroup) *AccessGroup {
	return &g
}
