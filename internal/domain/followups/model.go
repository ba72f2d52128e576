package followups

import "time"

// Ticket acompaña el "você fez?" de un evento pendiente cuya hora ya pasó.
// Estados: sin ticket -> activo -> {completado | expirado}.
type Ticket struct {
	ID      string
	EventID string
	Owner   string

	Attempts    int
	MaxAttempts int

	NextDue  time.Time
	Deadline time.Time

	Active    bool
	Completed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
