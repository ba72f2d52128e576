package reminders

import (
	"fmt"
	"strings"
	"time"

	"lembra/internal/domain/events"
	"lembra/internal/platform/braziltime"
)

const travelBufferMinutes = 5

func composeMessage(e events.Event, kind Kind, now time.Time) string {
	who := e.Person
	if who == "" {
		who = e.Title
	}

	var b strings.Builder
	switch kind {
	case Kind7Days:
		fmt.Fprintf(&b, "🎂 O aniversário de %s é daqui a %d dias (%s)!",
			who, braziltime.DaysBetween(now, e.At), braziltime.HumanDate(e.At))
	case Kind3Days:
		fmt.Fprintf(&b, "🎂 O aniversário de %s está chegando: %s!",
			who, braziltime.HumanDate(e.At))
	case Kind1Day:
		fmt.Fprintf(&b, "🎂 O aniversário de %s é amanhã!", who)
	case KindToday:
		fmt.Fprintf(&b, "🎉 Hoje é o aniversário de %s! Não esquece de dar os parabéns.", who)
	case Kind3Hours:
		fmt.Fprintf(&b, "⏰ Lembrete: %s às %s (em 3 horas).", e.Title, braziltime.HumanClock(e.At))
	case Kind1Hour:
		fmt.Fprintf(&b, "⏰ Falta 1 hora: %s às %s.", e.Title, braziltime.HumanClock(e.At))
	case KindChecklist:
		fmt.Fprintf(&b, "📋 Checklist para %s (às %s):", e.Title, braziltime.HumanClock(e.At))
		for _, item := range e.Checklist {
			fmt.Fprintf(&b, "\n• %s", item)
		}
	case KindNow:
		fmt.Fprintf(&b, "🔔 %s é agora!", e.Title)
	default:
		fmt.Fprintf(&b, "⏰ Lembrete: %s (%s).", e.Title, braziltime.HumanUntil(now, e.At))
	}

	if kind != Kind7Days && kind != Kind3Days && kind != Kind1Day && kind != KindToday {
		if extra := travelNote(e, now); extra != "" {
			b.WriteString("\n")
			b.WriteString(extra)
		}
	}

	return b.String()
}

// travelNote enriquece recordatorios con distancia, tránsito, hora de salida
// y urgencia cuando hay estimación de viaje calculada.
func travelNote(e events.Event, now time.Time) string {
	if e.Address == "" || !e.HasTravelInfo() {
		return ""
	}

	leaveBy := e.At.Add(-time.Duration(e.TravelMinutes+travelBufferMinutes) * time.Minute)
	toLeave := leaveBy.Sub(now)

	var b strings.Builder
	fmt.Fprintf(&b, "🚗 Cerca de %d min de viagem até %s", e.TravelMinutes, e.Address)
	if e.TravelKm > 0 {
		fmt.Fprintf(&b, " (%.1f km", e.TravelKm)
		if e.TravelTraffic != "" {
			fmt.Fprintf(&b, ", trânsito %s", e.TravelTraffic)
		}
		b.WriteString(")")
	}
	b.WriteString(".")

	switch {
	case toLeave < 0:
		b.WriteString(" ⚠️ Você já está atrasado, saia imediatamente!")
	case toLeave <= 5*time.Minute:
		b.WriteString(" Hora de sair agora!")
	case toLeave <= 15*time.Minute:
		fmt.Fprintf(&b, " Saia em %d minutos.", int(toLeave.Minutes()))
	default:
		fmt.Fprintf(&b, " Saia até %s.", braziltime.HumanClock(leaveBy))
	}
	return b.String()
}
