package recurrence

import "time"

type Frequency string

const (
	FreqDaily   Frequency = "diaria"
	FreqWeekly  Frequency = "semanal"
	FreqMonthly Frequency = "mensal"
)

type Rule struct {
	ID            string
	Owner         string
	OriginEventID string

	Frequency Frequency
	Interval  int // cada N unidades; default 1

	Weekdays []time.Weekday // solo semanal
	MonthDay int            // solo mensual; 1..31

	StartDate time.Time

	// Terminación: a lo sumo uno de EndDate/Count manda; ninguno => ventana
	// default de 3 meses desde la creación de la regla.
	EndDate time.Time
	Count   int

	Active    bool
	CreatedAt time.Time
}

// Occurrence vincula (regla, fecha) con el evento generado. La unicidad del
// par evita duplicar generación; Excluded salta una fecha sin apagar la regla.
type Occurrence struct {
	ID       string
	RuleID   string
	EventID  string
	Date     time.Time // fecha calendario de la ocurrencia
	Excluded bool
}
