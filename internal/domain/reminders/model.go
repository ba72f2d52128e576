package reminders

import "time"

// Kind es el tag estable de cada recordatorio. Se usa como clave de dedup y
// para elegir plantilla de mensaje: renombrar uno rompe el log histórico.
type Kind string

const (
	Kind7Days     Kind = "7d"
	Kind3Days     Kind = "3d"
	Kind1Day      Kind = "1d"
	KindToday     Kind = "0d"
	Kind3Hours    Kind = "3h"
	Kind1Hour     Kind = "1h"
	KindChecklist Kind = "30min_checklist"
	KindNow       Kind = "0min"
)

// SentReminder es el log append-only de despachos. (EventID, Kind) es único:
// un recordatorio dado se manda a lo sumo una vez por evento. Read/ReadAt
// llegan después por receipt del proveedor y alimentan el anti-spam.
type SentReminder struct {
	ID        string
	EventID   string
	Owner     string
	Kind      Kind
	MessageID string
	SentAt    time.Time
	Read      bool
	ReadAt    time.Time
}
