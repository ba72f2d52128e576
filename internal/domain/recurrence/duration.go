package recurrence

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"lembra/internal/platform/braziltime"
)

const (
	// MaxCount es el tope duro de ocurrencias por regla.
	MaxCount = 100

	defaultWindowMonths = 3
)

// Termination normaliza el texto libre de duración a {EndDate | Count}.
type Termination struct {
	EndDate time.Time
	Count   int
}

var (
	reCount = regexp.MustCompile(`(?i)(\d+)\s*vez(es)?`)
	reUnits = regexp.MustCompile(`(?i)(\d+)\s*(dias?|semanas?|m[eê]s(es)?)`)
)

var monthNames = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

// ParseTermination interpreta duraciones en pt-BR:
//   - "10 vezes"            => Count=10 (tope 100)
//   - "3 meses" / "2 semanas" / "15 dias" => EndDate relativa a now
//   - "até dezembro"        => fin del mes nombrado (próximo si ya pasó)
//   - nada reconocible      => 3 meses a partir de now
func ParseTermination(text string, now time.Time) Termination {
	text = strings.ToLower(strings.TrimSpace(text))

	if m := reCount.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			n = 1
		}
		if n > MaxCount {
			n = MaxCount
		}
		return Termination{Count: n}
	}

	if m := reUnits.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			n = 1
		}
		unit := m[2]
		switch {
		case strings.HasPrefix(unit, "dia"):
			return Termination{EndDate: now.AddDate(0, 0, n)}
		case strings.HasPrefix(unit, "semana"):
			return Termination{EndDate: now.AddDate(0, 0, 7*n)}
		default:
			return Termination{EndDate: now.AddDate(0, n, 0)}
		}
	}

	for name, month := range monthNames {
		if strings.Contains(text, name) {
			target := braziltime.Compose(now.Year(), month, 1, 0, 0)
			if month < now.Month() {
				target = target.AddDate(1, 0, 0)
			}
			return Termination{EndDate: braziltime.EndOfMonth(target)}
		}
	}

	return Termination{EndDate: now.AddDate(0, defaultWindowMonths, 0)}
}
