package fakeplayerrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
)

var _ players.Repo = (*FakePlayerRepo)(nil)

type FakePlayerRepo struct {
	players  map[int64]*players.Player
	emailIDs map[string]int64 // email to player id
	nextID   int64
	lock     sync.RWMutex
}

func NewFakePlayerRepo() *FakePlayerRepo {
	return &FakePlayerRepo{
		players:  make(map[int64]*players.Player),
		emailIDs: make(map[string]int64),
	}
}

func (pr *FakePlayerRepo) UpsertByEmail(_ context.Context, profile players.Profile) (*players.Player, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if id, ok := pr.emailIDs[profile.Email]; ok {
		return clonePlayer(pr.players[id]), nil
	}

	pr.nextID++
	p := &players.Player{
		ID:          pr.nextID,
		Name:        profile.Name,
		GivenName:   profile.GivenName,
		FamilyName:  profile.FamilyName,
		Email:       profile.Email,
		AccessGroup: players.Group(players.AccessGroupUser),
	}
	pr.players[p.ID] = p
	pr.emailIDs[p.Email] = p.ID
	return clonePlayer(p), nil
}

func (pr *FakePlayerRepo) GetByID(_ context.Context, id int64) (*players.Player, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	p, ok := pr.players[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clonePlayer(p), nil
}

func (pr *FakePlayerRepo) List(_ context.Context, offset, limit int) ([]*players.Player, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	list := make([]*players.Player, 0, len(pr.players))
	for _, p := range pr.players {
		list = append(list, clonePlayer(p))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset >= len(list) {
		return []*players.Player{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (pr *FakePlayerRepo) SetAccessGroup(_ context.Context, id int64, group players.AccessGroup) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.players[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.AccessGroup = players.Group(group)
	return nil
}

func (pr *FakePlayerRepo) SetGoalkeeper(_ context.Context, id int64, isGoalkeeper bool) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.players[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.IsGoalkeeper = isGoalkeeper
	return nil
}

// Put stores p as-is, replacing any player with the same ID. Used to seed
// tests with players in a specific access group.
func (pr *FakePlayerRepo) Put(p *players.Player) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if p.ID == 0 {
		pr.nextID++
		p.ID = pr.nextID
	} else if p.ID > pr.nextID {
		pr.nextID = p.ID
	}
	pr.players[p.ID] = clonePlayer(p)
	pr.emailIDs[p.Email] = p.ID
}

// Count returns the number of stored players.
func (pr *FakePlayerRepo) Count() int {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	return len(pr.players)
}

func clonePlayer(p *players.Player) *players.Player {
	c := *p
	if p.AccessGroup != nil {
		c.AccessGroup = players.Group(*p.AccessGroup)
	}
	return &c
}
