package events

type Kind string

const (
	KindBirthday    Kind = "aniversario"
	KindAppointment Kind = "compromisso"
	KindTask        Kind = "tarefa"
	KindHealth      Kind = "saude"
	KindReminder    Kind = "lembrete"
)

// DefaultKind es la política explícita para kinds desconocidos o vacíos:
// todo cae a compromiso. Antes era un fallthrough implícito; ahora es testeable.
func DefaultKind() Kind { return KindAppointment }

// ParseKind normaliza un kind externo (NLU, API). Desconocido => DefaultKind.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindBirthday, KindAppointment, KindTask, KindHealth, KindReminder:
		return Kind(s)
	default:
		return DefaultKind()
	}
}

type Status string

const (
	StatusPending  Status = "pendente"
	StatusDone     Status = "concluido"
	StatusCanceled Status = "cancelado"
)
