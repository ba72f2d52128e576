package reminders

import (
	"context"
	"time"
)

type Repository interface {
	// WasSent chequea el par único (evento, kind) antes de despachar.
	WasSent(ctx context.Context, eventID string, kind Kind) (bool, error)
	Record(ctx context.Context, sr SentReminder) error

	// LatestForOwner devuelve el último despacho al dueño (cualquier evento),
	// ok=false si nunca se le mandó nada.
	LatestForOwner(ctx context.Context, owner string) (SentReminder, bool, error)

	// MarkRead registra el read-receipt del proveedor.
	MarkRead(ctx context.Context, messageID string, at time.Time) error

	// EventByMessage resuelve a qué evento apunta un mensaje despachado,
	// ok=false si el id no corresponde a ningún recordatorio.
	EventByMessage(ctx context.Context, messageID string) (eventID string, ok bool, err error)
}
