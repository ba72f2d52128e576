package braziltime

import (
	"fmt"
	"time"
)

// Zone es el huso fijo de Brasília (-03:00). Sin DST: Brasil lo abolió en 2019,
// así que no usamos la base IANA, el offset es constante.
var Zone = time.FixedZone("-03:00", -3*60*60)

// Now devuelve el instante actual ya convertido a -03:00.
func Now() time.Time {
	return time.Now().In(Zone)
}

// Compose arma un instante a partir de partes de fecha y hora, siempre en -03:00.
func Compose(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, Zone)
}

// StartOfDay trunca al inicio del día calendario en -03:00.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Zone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Zone)
}

// DaysBetween cuenta días calendario completos entre from y until (floor).
// Puede ser negativo si until es anterior.
func DaysBetween(from, until time.Time) int {
	a := StartOfDay(from)
	b := StartOfDay(until)
	return int(b.Sub(a).Hours() / 24)
}

// NextDayAt devuelve el día siguiente a t, a la hora indicada, en -03:00.
func NextDayAt(t time.Time, hour, min int) time.Time {
	d := StartOfDay(t).AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, Zone)
}

// EndOfMonth devuelve el último instante útil (23:59) del mes de t.
func EndOfMonth(t time.Time) time.Time {
	t = t.In(Zone)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, Zone)
	last := first.AddDate(0, 1, -1)
	return time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 0, 0, Zone)
}

// Format serializa con offset explícito -03:00 (formato de persistencia).
func Format(t time.Time) string {
	return t.In(Zone).Format(time.RFC3339)
}

// Parse espera RFC3339; el resultado se normaliza a -03:00.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(Zone), nil
}

// HumanUntil describe en pt-BR cuánto falta desde now hasta t.
// Pensado para mensajes al usuario, no para lógica de ventanas.
func HumanUntil(now, t time.Time) string {
	d := t.Sub(now)
	switch {
	case d < 0:
		return "já passou"
	case d < time.Minute:
		return "agora"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "em 1 minuto"
		}
		return fmt.Sprintf("em %d minutos", m)
	case d < 24*time.Hour && DaysBetween(now, t) == 0:
		h := int(d.Hours())
		if h == 1 {
			return "em 1 hora"
		}
		return fmt.Sprintf("em %d horas", h)
	default:
		days := DaysBetween(now, t)
		switch days {
		case 0:
			return "hoje"
		case 1:
			return "amanhã"
		default:
			return fmt.Sprintf("em %d dias", days)
		}
	}
}

// HumanClock formatea hora local corta (15:04) para mensajes.
func HumanClock(t time.Time) string {
	return t.In(Zone).Format("15:04")
}

// HumanDate formatea fecha corta (02/01) para mensajes.
func HumanDate(t time.Time) string {
	return t.In(Zone).Format("02/01")
}
