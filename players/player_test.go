package players_test

import (
	"testing"

	"github.com/gubbhockey/clubhouse/players"
	"github.com/stretchr/testify/require"
)

func TestPlayer_IsAdmin(t *testing.T) {
	tests := []struct {
		name  string
		group *players.AccessGroup
		want  bool
	}{
		{name: "admin", group: players.Group(players.AccessGroupAdmin), want: true},
		{name: "user", group: players.Group(players.AccessGroupUser), want: false},
		{name: "super-admin", group: players.Group(players.AccessGroupSuperAdmin), want: false},
		{name: "null", group: nil, want: false},
		{name: "unknown", group: players.Group("Admin"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &players.Player{AccessGroup: tt.group}
			require.Equal(t, tt.want, p.IsAdmin())
		})
	}

	var nilPlayer *players.Player
	require.False(t, nilPlayer.IsAdmin())
}

func TestAccessGroup_Valid(t *testing.T) {
	require.True(t, players.AccessGroupUser.Valid())
	require.True(t, players.AccessGroupAdmin.Valid())
	require.True(t, players.AccessGroupSuperAdmin.Valid())
	require.False(t, players.AccessGroup("root").Valid())
	require.False(t, players.AccessGroup("").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "keeper@example.com", players.NormalizeEmail("  Keeper@Example.COM "))
}
