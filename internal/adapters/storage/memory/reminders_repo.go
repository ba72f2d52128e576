package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"lembra/internal/domain/reminders"
)

type remindersRepo struct {
	mu   sync.RWMutex
	sent []reminders.SentReminder
	keys map[string]bool // eventID/kind
}

func NewRemindersRepo() reminders.Repository {
	return &remindersRepo{
		keys: make(map[string]bool),
	}
}

func sentKey(eventID string, kind reminders.Kind) string {
	return eventID + "/" + string(kind)
}

func (r *remindersRepo) WasSent(ctx context.Context, eventID string, kind reminders.Kind) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[sentKey(eventID, kind)], nil
}

func (r *remindersRepo) Record(ctx context.Context, sr reminders.SentReminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sentKey(sr.EventID, sr.Kind)
	if r.keys[key] {
		return errors.New("reminder already recorded")
	}
	r.keys[key] = true
	r.sent = append(r.sent, sr)
	return nil
}

func (r *remindersRepo) LatestForOwner(ctx context.Context, owner string) (reminders.SentReminder, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// append-only: el último del slice es el más reciente
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].Owner == owner {
			return r.sent[i], true, nil
		}
	}
	return reminders.SentReminder{}, false, nil
}

func (r *remindersRepo) MarkRead(ctx context.Context, messageID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.sent {
		if r.sent[i].MessageID == messageID {
			r.sent[i].Read = true
			r.sent[i].ReadAt = at
			return nil
		}
	}
	// receipt de un mensaje que no es recordatorio: se ignora
	return nil
}

func (r *remindersRepo) EventByMessage(ctx context.Context, messageID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].MessageID == messageID {
			return r.sent[i].EventID, true, nil
		}
	}
	return "", false, nil
}
