package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"lembra/internal/adapters/storage/memory"
	pg "lembra/internal/adapters/storage/postgres"
	"lembra/internal/adapters/transport/console"
	"lembra/internal/domain/dialogue"
	"lembra/internal/domain/events"
	"lembra/internal/domain/followups"
	"lembra/internal/domain/recurrence"
	"lembra/internal/domain/reminders"
	"lembra/internal/domain/users"
	"lembra/internal/middleware"
	"lembra/internal/platform/logger"
	"lembra/internal/ports/auth"
	"lembra/internal/ports/nlu"
	"lembra/internal/ports/transport"
	"lembra/internal/ports/travel"
)

type Options struct {
	Verifier auth.Verifier // nil => modo dev, sin secreto

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Sender    transport.Sender // nil => consola
	Extractor nlu.Extractor
	Estimator travel.Estimator // nil => sin estimación de viaje

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.Verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/docs/*", httpSwagger.WrapHandler)

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		eventsRepo     events.Repository
		usersRepo      users.Repository
		recurrenceRepo recurrence.Repository
		sentRepo       reminders.Repository
		ticketsRepo    followups.Repository
		turnsRepo      dialogue.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{"error": err.Error()})
			}
		}
	}

	if db != nil {
		eventsRepo = pg.NewEventsRepo(db)
		usersRepo = pg.NewUsersRepo(db)
		recurrenceRepo = pg.NewRecurrenceRepo(db)
		sentRepo = pg.NewRemindersRepo(db)
		ticketsRepo = pg.NewFollowupsRepo(db)
		turnsRepo = pg.NewDialogueRepo(db)
	} else {
		eventsRepo = memory.NewEventsRepo()
		usersRepo = memory.NewUsersRepo()
		recurrenceRepo = memory.NewRecurrenceRepo()
		sentRepo = memory.NewRemindersRepo()
		ticketsRepo = memory.NewFollowupsRepo()
		turnsRepo = memory.NewDialogueRepo()
	}

	sender := opts.Sender
	if sender == nil {
		sender = console.NewSender(log)
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = noExtractor{}
	}

	// Services por módulo
	eventsSvc := events.NewService(eventsRepo)
	usersSvc := users.NewService(usersRepo)
	recurrenceSvc := recurrence.NewService(recurrenceRepo, eventsSvc)

	gate := reminders.NewGate(sentRepo, reminders.DefaultGateConfig())
	scheduler := reminders.NewScheduler(
		eventsSvc, eventsRepo, sentRepo, usersSvc,
		gate, sender, opts.Estimator, log,
	)

	followupsSvc := followups.NewService(ticketsRepo, eventsRepo, usersSvc, sender, log)

	dialogueSvc := dialogue.NewService(
		turnsRepo, eventsSvc, recurrenceSvc, usersSvc,
		extractor, sender,
		quotedLookup{sent: sentRepo, events: eventsSvc},
		log,
	)

	// Rutas por módulo
	dialogue.RegisterRoutes(r, dialogueSvc)
	reminders.RegisterRoutes(r, scheduler, sentRepo)
	followups.RegisterRoutes(r, followupsSvc)
	events.RegisterRoutes(r, eventsSvc)

	return r
}

// noExtractor es el NLU de modo dev sin credenciales: todo mensaje libre
// termina en pedido de aclaración.
type noExtractor struct{}

func (noExtractor) Extract(ctx context.Context, text string, ref time.Time) (nlu.Intent, error) {
	return nlu.Intent{}, nlu.ErrUnparseable
}

// quotedLookup junta el log de despachos con el store de eventos para
// resolver "respondió a tal mensaje" => "habla de tal evento".
type quotedLookup struct {
	sent   reminders.Repository
	events *events.Service
}

func (q quotedLookup) EventByMessage(ctx context.Context, messageID string) (events.Event, bool, error) {
	eventID, ok, err := q.sent.EventByMessage(ctx, messageID)
	if err != nil || !ok {
		return events.Event{}, false, err
	}
	e, err := q.events.GetByID(ctx, eventID)
	if err != nil {
		return events.Event{}, false, err
	}
	return e, true, nil
}
