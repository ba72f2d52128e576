package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"lembra/internal/domain/followups"
)

type followupsRepo struct {
	mu   sync.RWMutex
	byID map[string]followups.Ticket
}

func NewFollowupsRepo() followups.Repository {
	return &followupsRepo{
		byID: make(map[string]followups.Ticket),
	}
}

func (r *followupsRepo) Create(ctx context.Context, t followups.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		return errors.New("ticket id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errors.New("ticket already exists")
	}
	r.byID[t.ID] = t
	return nil
}

func (r *followupsRepo) Update(ctx context.Context, t followups.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[t.ID]; !ok {
		return errors.New("ticket not found")
	}
	r.byID[t.ID] = t
	return nil
}

func (r *followupsRepo) ActiveByEvent(ctx context.Context, eventID string) (followups.Ticket, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.byID {
		if t.EventID == eventID && t.Active {
			return t, true, nil
		}
	}
	return followups.Ticket{}, false, nil
}

func (r *followupsRepo) ListDue(ctx context.Context, due time.Time, limit int) ([]followups.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]followups.Ticket, 0)
	for _, t := range r.byID {
		if t.Active && !t.NextDue.After(due) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextDue.Before(out[j].NextDue)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
