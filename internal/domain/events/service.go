package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lembra/internal/platform/braziltime"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrAlreadyClosed: transición sobre un evento concluido/cancelado.
	// El status es monótono, no hay vuelta atrás automática.
	ErrAlreadyClosed = errors.New("event already closed")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  braziltime.Now,
	}
}

type CreateInput struct {
	Kind        Kind
	Title       string
	Description string
	Person      string
	Address     string
	At          time.Time
	Checklist   []string

	IsRecurring  bool
	RecurrenceID string
}

func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (Event, error) {
	if strings.TrimSpace(owner) == "" {
		return Event{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return Event{}, ErrInvalidInput
	}
	if in.At.IsZero() {
		return Event{}, ErrInvalidInput
	}
	if in.IsRecurring && strings.TrimSpace(in.RecurrenceID) == "" {
		return Event{}, ErrInvalidInput
	}

	kind := in.Kind
	if kind == "" {
		kind = DefaultKind()
	}

	e := Event{
		ID:           uuid.NewString(),
		Owner:        owner,
		Kind:         kind,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Person:       strings.TrimSpace(in.Person),
		Address:      strings.TrimSpace(in.Address),
		At:           in.At.In(braziltime.Zone),
		CreatedAt:    s.now(),
		Status:       StatusPending,
		IsRecurring:  in.IsRecurring,
		RecurrenceID: strings.TrimSpace(in.RecurrenceID),
		Checklist:    in.Checklist,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Event{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// EditInput: campos opcionales; nil => sin cambio.
type EditInput struct {
	Title  *string
	At     *time.Time
	Person *string
}

func (s *Service) Edit(ctx context.Context, id string, in EditInput) (Event, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !e.Open() {
		return Event{}, ErrAlreadyClosed
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return Event{}, ErrInvalidInput
		}
		e.Title = t
	}
	if in.At != nil {
		if in.At.IsZero() {
			return Event{}, ErrInvalidInput
		}
		e.At = in.At.In(braziltime.Zone)
	}
	if in.Person != nil {
		e.Person = strings.TrimSpace(*in.Person)
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// MarkStatus aplica pendente -> concluido|cancelado. Repetir el mismo status
// es idempotente; cambiar un evento ya cerrado devuelve ErrAlreadyClosed.
func (s *Service) MarkStatus(ctx context.Context, id string, st Status) (Event, error) {
	if st != StatusDone && st != StatusCanceled {
		return Event{}, ErrInvalidInput
	}

	e, err := s.GetByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if e.Status == st {
		return e, nil
	}
	if !e.Open() {
		return Event{}, ErrAlreadyClosed
	}

	e.Status = st
	if err := s.repo.Update(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Snooze empuja el evento delta hacia adelante desde ahora.
func (s *Service) Snooze(ctx context.Context, id string, delta time.Duration) (Event, error) {
	if delta <= 0 {
		return Event{}, ErrInvalidInput
	}
	at := s.now().Add(delta)
	return s.Edit(ctx, id, EditInput{At: &at})
}

// TravelInput es la estimación que devuelve el proveedor de rutas.
type TravelInput struct {
	Origin  string
	Minutes int
	Km      float64
	Traffic string
}

// SetTravelInfo guarda la última estimación de viaje para el evento.
func (s *Service) SetTravelInfo(ctx context.Context, id string, in TravelInput) (Event, error) {
	if in.Minutes <= 0 {
		return Event{}, ErrInvalidInput
	}
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	e.TravelMinutes = in.Minutes
	e.TravelKm = in.Km
	e.TravelTraffic = strings.TrimSpace(in.Traffic)
	e.TravelOrigin = strings.TrimSpace(in.Origin)
	e.TravelComputedAt = s.now()
	if err := s.repo.Update(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Agenda lista los próximos eventos abiertos del dueño dentro de horizonDays.
func (s *Service) Agenda(ctx context.Context, owner string, horizonDays int) ([]Event, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrInvalidInput
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}
	now := s.now()
	return s.repo.ListWindow(ctx, WindowFilter{
		Owner:    owner,
		From:     braziltime.StartOfDay(now),
		To:       now.AddDate(0, 0, horizonDays),
		OnlyOpen: true,
		Limit:    20,
	})
}

// CleanupExpiredReminders borra lembretes avulsos cuya fecha pasó hace más de
// 7 días, cualquiera sea su status; a esa altura ningún follow-up sigue vivo.
func (s *Service) CleanupExpiredReminders(ctx context.Context) (int, error) {
	return s.repo.DeleteExpiredReminders(ctx, s.now().AddDate(0, 0, -7))
}
