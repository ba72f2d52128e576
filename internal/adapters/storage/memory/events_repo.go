package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"lembra/internal/domain/events"
)

type eventsRepo struct {
	mu   sync.RWMutex
	byID map[string]events.Event
}

func NewEventsRepo() events.Repository {
	return &eventsRepo{
		byID: make(map[string]events.Event),
	}
}

func (r *eventsRepo) Create(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("event already exists")
	}

	r.byID[e.ID] = e
	return nil
}

func (r *eventsRepo) GetByID(ctx context.Context, id string) (events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return e, nil
}

func (r *eventsRepo) Update(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[e.ID]; !ok {
		return events.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *eventsRepo) ListWindow(ctx context.Context, f events.WindowFilter) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]events.Event, 0)
	for _, e := range r.byID {
		if f.Owner != "" && e.Owner != f.Owner {
			continue
		}
		if !f.From.IsZero() && e.At.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.At.After(f.To) {
			continue
		}
		if f.OnlyOpen && !e.Open() {
			continue
		}
		if q := strings.TrimSpace(f.TitleContains); q != "" {
			if !strings.Contains(strings.ToLower(e.Title), strings.ToLower(q)) {
				continue
			}
		}
		if len(f.Kinds) > 0 {
			ok := false
			for _, k := range f.Kinds {
				if e.Kind == k {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}

	// orden cronológico ascendente
	sort.Slice(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *eventsRepo) DeleteExpiredReminders(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.byID {
		if e.Kind == events.KindReminder && e.At.Before(before) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
