package players

import "context"

type Repo interface {
	// UpsertByEmail returns the player with profile.Email, creating it with
	// access group "user" if it does not exist. Existing players are
	// returned unchanged.
	UpsertByEmail(ctx context.Context, profile Profile) (*Player, error)
	GetByID(ctx context.Context, id int64) (*Player, error)
	List(ctx context.Context, offset, limit int) ([]*Player, error)
	SetAccessGroup(ctx context.Context, id int64, group AccessGroup) error
	SetGoalkeeper(ctx context.Context, id int64, isGoalkeeper bool) error
}
