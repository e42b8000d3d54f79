package sqlstore

import (
	"context"
	"database/sql"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
)

var _ players.Repo = (*PlayerRepo)(nil)

const playerColumns = `player_id, name, given_name, family_name, email, access_group, is_goalkeeper`

type PlayerRepo struct {
	store *Store
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*players.Player, error) {
	var (
		p     players.Player
		group sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.GivenName, &p.FamilyName, &p.Email, &group, &p.IsGoalkeeper); err != nil {
		return nil, err
	}
	if group.Valid {
		p.AccessGroup = players.Group(players.AccessGroup(group.String))
	}
	return &p, nil
}

// UpsertByEmail is a single statement so concurrent first logins with the
// same email resolve to one row. The no-op update makes RETURNING yield the
// existing row on conflict.
func (r *PlayerRepo) UpsertByEmail(ctx context.Context, profile players.Profile) (*players.Player, error) {
	if profile.Email == "" {
		return nil, errors.Wrapf(errors.ErrPersistence, "[sqlstore Player UpsertByEmail] email is required")
	}
	row := r.store.queryRow(ctx, `
INSERT INTO player (name, given_name, family_name, email, access_group, is_goalkeeper)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET email = excluded.email
RETURNING `+playerColumns,
		profile.Name, profile.GivenName, profile.FamilyName, profile.Email, string(players.AccessGroupUser), false,
	)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, persistenceErr("Player UpsertByEmail", err)
	}
	return p, nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id int64) (*players.Player, error) {
	p, err := scanPlayer(r.store.queryRow(ctx, `SELECT `+playerColumns+` FROM player WHERE player_id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("Player GetByID", err)
	}
	return p, nil
}

// List returns players ordered by id. A non-positive limit returns all rows
// from offset.
func (r *PlayerRepo) List(ctx context.Context, offset, limit int) ([]*players.Player, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + playerColumns + ` FROM player ORDER BY player_id LIMIT ? OFFSET ?`
	args := []any{limit, offset}
	if limit < 0 {
		query = `SELECT ` + playerColumns + ` FROM player ORDER BY player_id OFFSET ?`
		args = []any{offset}
		if r.store.dialect == DialectSQLite {
			query = `SELECT ` + playerColumns + ` FROM player ORDER BY player_id LIMIT -1 OFFSET ?`
		}
	}

	rows, err := r.store.query(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("Player List", err)
	}
	defer rows.Close()

	list := make([]*players.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, persistenceErr("Player List", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("Player List", err)
	}
	return list, nil
}

func (r *PlayerRepo) SetAccessGroup(ctx context.Context, id int64, group players.AccessGroup) error {
	res, err := r.store.exec(ctx, `UPDATE player SET access_group = ? WHERE player_id = ?`, string(group), id)
	return checkUpdated("Player SetAccessGroup", res, err)
}

func (r *PlayerRepo) SetGoalkeeper(ctx context.Context, id int64, isGoalkeeper bool) error {
	res, err := r.store.exec(ctx, `UPDATE player SET is_goalkeeper = ? WHERE player_id = ?`, isGoalkeeper, id)
	return checkUpdated("Player SetGoalkeeper", res, err)
}

func checkUpdated(op string, res sql.Result, err error) error {
	if err != nil {
		return persistenceErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceErr(op, err)
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}
