package events

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	Update(ctx context.Context, e Event) error
	ListWindow(ctx context.Context, f WindowFilter) ([]Event, error)
	// DeleteExpiredReminders borra lembretes transitorios anteriores a before
	// (housekeeping acotado; los demás kinds nunca se borran).
	DeleteExpiredReminders(ctx context.Context, before time.Time) (int, error)
}

// WindowFilter acota por dueño, rango temporal y título.
// Owner vacío = todos los dueños (lo usan los jobs batch).
type WindowFilter struct {
	Owner         string
	From          time.Time
	To            time.Time
	TitleContains string // substring case-insensitive
	OnlyOpen      bool   // status pendiente (o vacío)
	Kinds         []Kind
	Limit         int
}
