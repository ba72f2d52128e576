package dialogue

import (
	"time"

	"lembra/internal/ports/nlu"
)

type PendingKind string

const (
	PendingCreate          PendingKind = "create"
	PendingCreateRecurring PendingKind = "create_recurring"
	PendingEdit            PendingKind = "edit"
	PendingCancel          PendingKind = "cancel"
	PendingMarkDone        PendingKind = "mark_done"
)

// PendingAction es una mutación propuesta por el sistema, a la espera de una
// confirmación explícita ("sim", "ok") o de una elección numérica de menú.
type PendingAction struct {
	Kind PendingKind

	// EventID: target resuelto (edit/cancel/mark con candidato único).
	EventID    string
	EventTitle string

	// Draft: payload de creación.
	Draft *nlu.EventDraft

	// Cambios de edición; nil => sin cambio.
	NewTitle  *string
	NewAt     *time.Time
	NewPerson *string

	// Options: IDs candidatos cuando la búsqueda fue ambigua; un dígito
	// suelto elige 1..N.
	Options      []string
	OptionTitles []string

	CreatedAt time.Time
}

// QuotedMessage describe a qué evento apunta la respuesta-a-mensaje del
// usuario.
type QuotedMessage struct {
	MessageID  string
	EventID    string
	EventTitle string
}

// Context es la memoria de trabajo del resolver: a lo sumo una acción
// pendiente y a lo sumo un mensaje citado. Union etiquetada, nada de blobs
// sueltos.
type Context struct {
	Pending *PendingAction
	Quoted  *QuotedMessage
}

// Turn es un intercambio persistido (mensaje del usuario + respuesta) con el
// contexto que quedó vigente después de responder.
type Turn struct {
	ID               string
	Owner            string
	UserMessage      string
	AssistantMessage string
	Context          *Context
	CreatedAt        time.Time
}
