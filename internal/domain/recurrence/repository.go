package recurrence

import (
	"context"
	"time"
)

type Repository interface {
	CreateRule(ctx context.Context, r Rule) error
	GetRule(ctx context.Context, id string) (Rule, error)
	UpdateRule(ctx context.Context, r Rule) error

	CreateOccurrence(ctx context.Context, o Occurrence) error
	// GetOccurrence busca por (regla, fecha calendario).
	GetOccurrence(ctx context.Context, ruleID string, date time.Time) (Occurrence, error)
	UpdateOccurrence(ctx context.Context, o Occurrence) error
}
