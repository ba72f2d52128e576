package followups

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lembra/internal/domain/events"
	"lembra/internal/domain/users"
	"lembra/internal/platform/braziltime"
	"lembra/internal/platform/logger"
	"lembra/internal/ports/transport"
)

const (
	// graceAfterStart: cuánto esperar tras la hora del evento antes de abrir
	// ticket.
	graceAfterStart = 15 * time.Minute
	// creationLookback acota el barrido de eventos vencidos.
	creationLookback = 7 * 24 * time.Hour

	ticketDeadline  = 3 * 24 * time.Hour
	maxAttempts     = 7
	batchLimit      = 50
	minRescheduleIn = time.Hour
	morningHour     = 9
)

// Service es la escalera de follow-ups: crea tickets para eventos vencidos
// y re-pregunta con intervalos crecientes hasta respuesta, tope de intentos
// o deadline.
type Service struct {
	repo      Repository
	eventRepo events.Repository
	users     *users.Service
	sender    transport.Sender
	log       logger.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	eventRepo events.Repository,
	usersSvc *users.Service,
	sender transport.Sender,
	log logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		eventRepo: eventRepo,
		users:     usersSvc,
		sender:    sender,
		log:       log,
		now:       braziltime.Now,
	}
}

type Stats struct {
	Created   int
	Sent      int
	Completed int
	Expired   int
	Failed    int
}

// Run es un tick: abre tickets nuevos y procesa los vencidos (batch ≤50).
func (s *Service) Run(ctx context.Context) (Stats, error) {
	now := s.now()
	var stats Stats

	if err := s.ensureTickets(ctx, now, &stats); err != nil {
		return stats, err
	}

	due, err := s.repo.ListDue(ctx, now, batchLimit)
	if err != nil {
		return stats, err
	}
	for _, t := range due {
		s.processTicket(ctx, t, now, &stats)
	}
	return stats, nil
}

// ensureTickets abre un ticket para cada evento pendiente no-aniversário cuya
// hora pasó hace >=15 min y que todavía no tiene ticket activo.
func (s *Service) ensureTickets(ctx context.Context, now time.Time, stats *Stats) error {
	overdue, err := s.eventRepo.ListWindow(ctx, events.WindowFilter{
		From:     now.Add(-creationLookback),
		To:       now.Add(-graceAfterStart),
		OnlyOpen: true,
	})
	if err != nil {
		return err
	}

	for _, e := range overdue {
		if e.Kind == events.KindBirthday {
			continue
		}

		if _, ok, err := s.repo.ActiveByEvent(ctx, e.ID); err != nil {
			stats.Failed++
			s.log.Error("ticket lookup failed", map[string]any{"event_id": e.ID, "error": err.Error()})
			continue
		} else if ok {
			continue
		}

		t := Ticket{
			ID:          uuid.NewString(),
			EventID:     e.ID,
			Owner:       e.Owner,
			Attempts:    0,
			MaxAttempts: maxAttempts,
			NextDue:     now,
			Deadline:    now.Add(ticketDeadline),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, t); err != nil {
			stats.Failed++
			s.log.Error("ticket create failed", map[string]any{"event_id": e.ID, "error": err.Error()})
			continue
		}
		stats.Created++
	}
	return nil
}

func (s *Service) processTicket(ctx context.Context, t Ticket, now time.Time, stats *Stats) {
	log := s.log.With(map[string]any{"ticket_id": t.ID, "event_id": t.EventID})

	e, err := s.eventRepo.GetByID(ctx, t.EventID)
	if err != nil {
		stats.Failed++
		log.Error("event lookup failed", map[string]any{"error": err.Error()})
		return
	}

	// el evento se resolvió por otro camino: cortocircuito
	if !e.Open() {
		t.Active = false
		t.Completed = true
		t.UpdatedAt = now
		if err := s.repo.Update(ctx, t); err != nil {
			stats.Failed++
			log.Error("ticket complete failed", map[string]any{"error": err.Error()})
			return
		}
		stats.Completed++
		return
	}

	owner, err := s.users.GetByID(ctx, t.Owner)
	if err != nil {
		stats.Failed++
		log.Error("owner binding lookup failed", map[string]any{"error": err.Error()})
		return
	}

	if _, err := s.sender.Send(ctx, owner.Phone, composeFollowup(e, t.Attempts, now)); err != nil {
		// el ticket queda intacto; el próximo tick reintenta
		stats.Failed++
		log.Error("followup send failed", map[string]any{"error": err.Error()})
		return
	}
	stats.Sent++

	next := nextDue(t.Attempts, now)
	t.Attempts++
	t.UpdatedAt = now

	if t.Attempts >= t.MaxAttempts || next.After(t.Deadline) {
		t.Active = false // expirado
		stats.Expired++
	} else {
		t.NextDue = next
	}

	if err := s.repo.Update(ctx, t); err != nil {
		stats.Failed++
		log.Error("ticket update failed", map[string]any{"error": err.Error()})
	}
}

// nextDue aplica la escalera: 3h, 6h, 12h y después siempre el día siguiente
// a las 09:00, con piso de 1h para no caer en intervalos nulos cerca del
// borde.
func nextDue(attempts int, now time.Time) time.Time {
	var next time.Time
	switch attempts {
	case 0:
		next = now.Add(3 * time.Hour)
	case 1:
		next = now.Add(6 * time.Hour)
	case 2:
		next = now.Add(12 * time.Hour)
	default:
		next = braziltime.NextDayAt(now, morningHour, 0)
	}

	if floor := now.Add(minRescheduleIn); next.Before(floor) {
		next = floor
	}
	return next
}

func composeFollowup(e events.Event, attempts int, now time.Time) string {
	switch {
	case attempts == 0 && (e.Kind == events.KindAppointment || e.Kind == events.KindHealth):
		return fmt.Sprintf("Você foi em %s às %s? Me conta se já posso marcar como concluído.",
			e.Title, braziltime.HumanClock(e.At))
	case attempts >= 3 && e.Kind == events.KindReminder:
		days := braziltime.DaysBetween(e.At, now)
		return fmt.Sprintf("Já fazem %d dias: conseguiu resolver \"%s\"?", days, e.Title)
	default:
		return fmt.Sprintf("Passando de novo: você já concluiu \"%s\"?", e.Title)
	}
}
