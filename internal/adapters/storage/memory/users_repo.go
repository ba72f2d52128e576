package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"lembra/internal/domain/users"
)

type usersRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byPhone map[string]string // phone -> id

	// places indexado por owner/label (label ya viene normalizado)
	places map[string]users.Place
}

func NewUsersRepo() users.Repository {
	return &usersRepo{
		byID:    make(map[string]users.User),
		byPhone: make(map[string]string),
		places:  make(map[string]users.Place),
	}
}

func (r *usersRepo) UpsertUser(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		return errors.New("user id required")
	}
	r.byID[u.ID] = u
	r.byPhone[u.Phone] = u.ID
	return nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByPhone(ctx context.Context, phone string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[phone]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *usersRepo) UpsertPlace(ctx context.Context, p users.Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Owner == "" || p.Label == "" {
		return errors.New("place owner and label required")
	}
	r.places[p.Owner+"/"+p.Label] = p
	return nil
}

func (r *usersRepo) GetPlace(ctx context.Context, owner, label string) (users.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.places[owner+"/"+label]
	if !ok {
		return users.Place{}, users.ErrNotFound
	}
	return p, nil
}

func (r *usersRepo) ListPlaces(ctx context.Context, owner string) ([]users.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.Place, 0)
	for _, p := range r.places {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}
