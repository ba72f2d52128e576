package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"lembra/internal/domain/events"
	"lembra/internal/domain/users"
	"lembra/internal/platform/braziltime"
	"lembra/internal/platform/logger"
	"lembra/internal/ports/transport"
	"lembra/internal/ports/travel"
)

const (
	// horizonDays: ventana de evaluación de cada tick.
	horizonDays = 8

	// travelStaleAfter: una estimación más vieja que esto se recalcula.
	travelStaleAfter = time.Hour
	// travelLookahead: solo se consulta el proveedor si el evento está cerca.
	travelLookahead = 4 * time.Hour
)

// Scheduler evalúa la tabla de reglas por kind de evento y despacha los
// recordatorios debidos. Cada invocación corre hasta completar el batch;
// el dedup por (evento, kind) lo hace seguro ante re-ejecuciones.
type Scheduler struct {
	events    *events.Service
	eventRepo events.Repository
	sent      Repository
	users     *users.Service
	gate      *Gate
	sender    transport.Sender
	travel    travel.Estimator
	log       logger.Logger
	now       func() time.Time
}

func NewScheduler(
	eventsSvc *events.Service,
	eventRepo events.Repository,
	sent Repository,
	usersSvc *users.Service,
	gate *Gate,
	sender transport.Sender,
	estimator travel.Estimator,
	log logger.Logger,
) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		events:    eventsSvc,
		eventRepo: eventRepo,
		sent:      sent,
		users:     usersSvc,
		gate:      gate,
		sender:    sender,
		travel:    estimator,
		log:       log,
		now:       braziltime.Now,
	}
}

type Stats struct {
	Evaluated int
	Sent      int
	Deduped   int
	Blocked   int
	Failed    int
}

// Run es un tick del scheduler. Ninguna falla por item tumba el batch.
func (s *Scheduler) Run(ctx context.Context) (Stats, error) {
	now := s.now()

	due, err := s.eventRepo.ListWindow(ctx, events.WindowFilter{
		From:     braziltime.StartOfDay(now),
		To:       now.AddDate(0, 0, horizonDays),
		OnlyOpen: true,
	})
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, e := range due {
		stats.Evaluated++
		s.processEvent(ctx, e, now, &stats)
	}
	return stats, nil
}

func (s *Scheduler) processEvent(ctx context.Context, e events.Event, now time.Time, stats *Stats) {
	log := s.log.With(map[string]any{"event_id": e.ID, "owner": e.Owner})

	e = s.maybeRefreshTravel(ctx, e, now, log)

	kind, due := dueKind(e, now)
	if !due {
		return
	}

	sent, err := s.sent.WasSent(ctx, e.ID, kind)
	if err != nil {
		stats.Failed++
		log.Error("sent-log check failed", map[string]any{"error": err.Error()})
		return
	}
	if sent {
		stats.Deduped++
		return
	}

	allowed, err := s.gate.CanSend(ctx, e.Owner, kind)
	if err != nil {
		stats.Failed++
		log.Error("anti-spam check failed", map[string]any{"error": err.Error()})
		return
	}
	if !allowed {
		stats.Blocked++
		log.Debug("blocked by anti-spam gate", map[string]any{"kind": string(kind)})
		return
	}

	owner, err := s.users.GetByID(ctx, e.Owner)
	if err != nil {
		stats.Failed++
		log.Error("owner binding lookup failed", map[string]any{"error": err.Error()})
		return
	}

	msgID, err := s.sender.Send(ctx, owner.Phone, composeMessage(e, kind, now))
	if err != nil {
		// sin retry dentro del tick; el próximo tick reintenta porque
		// no quedó registrado en el log
		stats.Failed++
		log.Error("send failed", map[string]any{"kind": string(kind), "error": err.Error()})
		return
	}

	// registro inmediato: dos ticks solapados convergen vía WasSent
	if err := s.sent.Record(ctx, SentReminder{
		ID:        uuid.NewString(),
		EventID:   e.ID,
		Owner:     e.Owner,
		Kind:      kind,
		MessageID: msgID,
		SentAt:    now,
	}); err != nil {
		stats.Failed++
		log.Error("sent-log record failed", map[string]any{"kind": string(kind), "error": err.Error()})
		return
	}

	stats.Sent++
	log.Info("reminder sent", map[string]any{"kind": string(kind)})
}

// dueKind aplica la tabla de reglas. Devuelve a lo sumo un kind por tick.
func dueKind(e events.Event, now time.Time) (Kind, bool) {
	if e.Kind == events.KindBirthday {
		// bandas de 2 días en 7 y 3 para tolerar jitter del trigger
		switch days := braziltime.DaysBetween(now, e.At); days {
		case 7, 6:
			return Kind7Days, true
		case 3, 2:
			return Kind3Days, true
		case 1:
			return Kind1Day, true
		case 0:
			return KindToday, true
		default:
			return "", false
		}
	}

	// timed: solo mismo día calendario y con el inicio todavía en el futuro
	if braziltime.DaysBetween(now, e.At) != 0 {
		return "", false
	}
	h := e.At.Sub(now).Hours()
	if h <= 0 {
		return "", false
	}

	switch {
	case h > 2.5 && h <= 3.5:
		return Kind3Hours, true
	case h > 0.75 && h <= 1.25:
		return Kind1Hour, true
	case h > 0.4 && h <= 0.6 && len(e.Checklist) > 0:
		return KindChecklist, true
	case h <= 0.17:
		return KindNow, true
	default:
		return "", false
	}
}

// maybeRefreshTravel recalcula el viaje si la estimación está vencida
// (nunca calculada o >1h) y el evento está a menos de 4h. Falla => sigue con
// lo que haya.
func (s *Scheduler) maybeRefreshTravel(ctx context.Context, e events.Event, now time.Time, log logger.Logger) events.Event {
	if s.travel == nil || e.Address == "" {
		return e
	}
	until := e.At.Sub(now)
	if until <= 0 || until > travelLookahead {
		return e
	}
	if !e.TravelComputedAt.IsZero() && now.Sub(e.TravelComputedAt) <= travelStaleAfter {
		return e
	}

	origin := e.TravelOrigin
	if origin == "" {
		resolved, err := s.users.ResolveOrigin(ctx, e.Owner, "")
		if err != nil {
			if !errors.Is(err, users.ErrNotFound) {
				log.Warn("travel origin lookup failed", map[string]any{"error": err.Error()})
			}
			return e
		}
		origin = resolved
	}

	est, err := s.travel.Estimate(ctx, origin, e.Address, now)
	if err != nil {
		log.Warn("travel estimate failed", map[string]any{"error": err.Error()})
		return e
	}

	updated, err := s.events.SetTravelInfo(ctx, e.ID, events.TravelInput{
		Origin:  origin,
		Minutes: est.Minutes,
		Km:      est.DistanceKm,
		Traffic: est.TrafficLevel,
	})
	if err != nil {
		log.Warn("travel info update failed", map[string]any{"error": err.Error()})
		return e
	}
	return updated
}
