package followups

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, t Ticket) error
	Update(ctx context.Context, t Ticket) error

	// ActiveByEvent: ticket activo del evento, ok=false si no hay.
	ActiveByEvent(ctx context.Context, eventID string) (Ticket, bool, error)

	// ListDue: tickets activos con NextDue <= due, ordenados por NextDue,
	// acotados a limit.
	ListDue(ctx context.Context, due time.Time, limit int) ([]Ticket, error)
}
