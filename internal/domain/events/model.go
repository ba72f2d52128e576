package events

import "time"

type Event struct {
	ID    string
	Owner string

	Kind Kind

	Title       string
	Description string
	Person      string
	Address     string

	// At siempre lleva offset explícito -03:00.
	At        time.Time
	CreatedAt time.Time

	Status Status

	IsRecurring  bool
	RecurrenceID string

	Checklist []string

	// Travel: cache de la última consulta al proveedor de rutas.
	TravelMinutes    int
	TravelKm         float64
	TravelTraffic    string
	TravelOrigin     string
	TravelComputedAt time.Time
}

// HasTravelInfo indica si hay una estimación de viaje ya calculada.
func (e Event) HasTravelInfo() bool {
	return e.TravelMinutes > 0 && !e.TravelComputedAt.IsZero()
}

// Open indica si el evento sigue accionable (ni concluido ni cancelado).
func (e Event) Open() bool {
	return e.Status == StatusPending || e.Status == ""
}
