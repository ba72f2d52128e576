package nlu

import (
	"context"
	"errors"
	"time"
)

// ErrUnparseable: el texto no encaja en ningún shape esperado. El resolver lo
// trata como intención ambigua (pregunta de aclaración), nunca como default
// silencioso.
var ErrUnparseable = errors.New("nlu: unparseable message")

type IntentKind string

const (
	IntentCreateEvent     IntentKind = "create_event"
	IntentEditEvent       IntentKind = "edit_event"
	IntentCancelEvent     IntentKind = "cancel_event"
	IntentMarkStatus      IntentKind = "mark_status"
	IntentQueryAgenda     IntentKind = "query_agenda"
	IntentSnooze          IntentKind = "snooze"
	IntentFavoritePlace   IntentKind = "favorite_place"
	IntentCreateRecurring IntentKind = "create_recurring"
	IntentStandaloneNote  IntentKind = "standalone_reminder"
	IntentCasual          IntentKind = "casual"
)

// EventDraft es el borrador estructurado que la extracción devuelve para
// intents de creación/edición.
type EventDraft struct {
	Kind        string
	Title       string
	Description string
	Person      string
	Address     string
	At          time.Time
	Checklist   []string

	// Recurrencia (solo create_recurring)
	Frequency    string
	Interval     int
	Weekdays     []int // 0..6
	MonthDay     int
	DurationText string
}

// Intent es la clasificación de un mensaje libre.
type Intent struct {
	Kind IntentKind

	// TargetQuery: fragmento de título del evento referido (edit/cancel/
	// mark_status/snooze).
	TargetQuery string

	// MarkDone true => concluído; false en mark_status => cancelado.
	MarkDone bool

	SnoozeMinutes int

	// Favorite place
	PlaceLabel   string
	PlaceAddress string

	Draft *EventDraft

	// Reply es la respuesta sugerida para charla casual.
	Reply string
}

// Extractor mapea texto libre a un intent estructurado. La fecha de
// referencia ancla expresiones relativas ("amanhã", "daqui a 2 horas").
type Extractor interface {
	Extract(ctx context.Context, text string, ref time.Time) (Intent, error)
}
