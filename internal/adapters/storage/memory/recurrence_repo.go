package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"lembra/internal/domain/recurrence"
	"lembra/internal/platform/braziltime"
)

type recurrenceRepo struct {
	mu    sync.RWMutex
	rules map[string]recurrence.Rule

	// occurrences indexadas por regla/fecha (la fecha es día calendario)
	occs map[string]recurrence.Occurrence
}

func NewRecurrenceRepo() recurrence.Repository {
	return &recurrenceRepo{
		rules: make(map[string]recurrence.Rule),
		occs:  make(map[string]recurrence.Occurrence),
	}
}

func occKey(ruleID string, date time.Time) string {
	return ruleID + "/" + braziltime.StartOfDay(date).Format("2006-01-02")
}

func (r *recurrenceRepo) CreateRule(ctx context.Context, rule recurrence.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rule.ID == "" {
		return errors.New("rule id required")
	}
	if _, exists := r.rules[rule.ID]; exists {
		return errors.New("rule already exists")
	}
	r.rules[rule.ID] = rule
	return nil
}

func (r *recurrenceRepo) GetRule(ctx context.Context, id string) (recurrence.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return recurrence.Rule{}, recurrence.ErrNotFound
	}
	return rule, nil
}

func (r *recurrenceRepo) UpdateRule(ctx context.Context, rule recurrence.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[rule.ID]; !ok {
		return recurrence.ErrNotFound
	}
	r.rules[rule.ID] = rule
	return nil
}

func (r *recurrenceRepo) CreateOccurrence(ctx context.Context, o recurrence.Occurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := occKey(o.RuleID, o.Date)
	if _, exists := r.occs[key]; exists {
		return errors.New("occurrence already exists")
	}
	r.occs[key] = o
	return nil
}

func (r *recurrenceRepo) GetOccurrence(ctx context.Context, ruleID string, date time.Time) (recurrence.Occurrence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.occs[occKey(ruleID, date)]
	if !ok {
		return recurrence.Occurrence{}, recurrence.ErrNotFound
	}
	return o, nil
}

func (r *recurrenceRepo) UpdateOccurrence(ctx context.Context, o recurrence.Occurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := occKey(o.RuleID, o.Date)
	if _, ok := r.occs[key]; !ok {
		return recurrence.ErrNotFound
	}
	r.occs[key] = o
	return nil
}
