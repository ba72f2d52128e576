package events

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"lembra/internal/platform/braziltime"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Event
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Event{}}
}

func (r *testRepo) Create(ctx context.Context, e Event) error {
	if e.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[e.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Event, error) {
	e, ok := r.byID[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

func (r *testRepo) Update(ctx context.Context, e Event) error {
	if _, ok := r.byID[e.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) ListWindow(ctx context.Context, f WindowFilter) ([]Event, error) {
	out := make([]Event, 0)
	for _, e := range r.byID {
		if f.Owner != "" && e.Owner != f.Owner {
			continue
		}
		if !f.From.IsZero() && e.At.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.At.After(f.To) {
			continue
		}
		if f.OnlyOpen && !e.Open() {
			continue
		}
		if f.TitleContains != "" &&
			!strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.TitleContains)) {
			continue
		}
		if len(f.Kinds) > 0 {
			ok := false
			for _, k := range f.Kinds {
				if e.Kind == k {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) DeleteExpiredReminders(ctx context.Context, before time.Time) (int, error) {
	n := 0
	for id, e := range r.byID {
		if e.Kind == KindReminder && e.At.Before(before) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_Defaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := braziltime.Compose(2026, time.March, 10, 9, 0)
	svc.now = func() time.Time { return now }

	e, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Title: "  Consulta Dentista  ",
		At:    braziltime.Compose(2026, time.March, 12, 15, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if e.Kind != KindAppointment {
		t.Fatalf("expected default kind compromisso, got %s", e.Kind)
	}
	if e.Status != StatusPending {
		t.Fatalf("expected status pendente, got %s", e.Status)
	}
	if e.Title != "Consulta Dentista" {
		t.Fatalf("expected trimmed title, got %q", e.Title)
	}
	if e.CreatedAt != now {
		t.Fatalf("expected CreatedAt = now")
	}
}

func TestService_Create_RecurringRequiresRule(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Title:       "Academia",
		At:          braziltime.Compose(2026, time.March, 12, 7, 0),
		IsRecurring: true,
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseKind_UnknownFallsToDefault(t *testing.T) {
	if ParseKind("reuniao") != DefaultKind() {
		t.Fatalf("unknown kind should fall to DefaultKind")
	}
	if ParseKind(string(KindHealth)) != KindHealth {
		t.Fatalf("known kind should parse as-is")
	}
}

func TestService_MarkStatus_Monotone(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	e, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Title: "Pagar boleto",
		Kind:  KindTask,
		At:    braziltime.Compose(2026, time.March, 12, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	done, err := svc.MarkStatus(context.Background(), e.ID, StatusDone)
	if err != nil {
		t.Fatalf("MarkStatus error: %v", err)
	}
	if done.Status != StatusDone {
		t.Fatalf("expected concluido, got %s", done.Status)
	}

	// idempotente con el mismo status
	again, err := svc.MarkStatus(context.Background(), e.ID, StatusDone)
	if err != nil {
		t.Fatalf("MarkStatus repeat error: %v", err)
	}
	if again.Status != StatusDone {
		t.Fatalf("expected concluido after repeat, got %s", again.Status)
	}

	// no hay vuelta atrás ni cambio de cierre
	if _, err := svc.MarkStatus(context.Background(), e.ID, StatusCanceled); err != ErrAlreadyClosed {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestService_Snooze_MovesFromNow(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := braziltime.Compose(2026, time.March, 10, 9, 0)
	svc.now = func() time.Time { return now }

	e, _ := svc.Create(context.Background(), "owner-1", CreateInput{
		Title: "Tomar remédio",
		Kind:  KindHealth,
		At:    braziltime.Compose(2026, time.March, 10, 8, 0),
	})

	moved, err := svc.Snooze(context.Background(), e.ID, 30*time.Minute)
	if err != nil {
		t.Fatalf("Snooze error: %v", err)
	}
	if !moved.At.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("expected At = now+30m, got %s", moved.At)
	}
}

func TestService_CleanupExpiredReminders_OnlyReminders(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := braziltime.Compose(2026, time.March, 20, 9, 0)
	svc.now = func() time.Time { return now }

	old := now.AddDate(0, 0, -10)
	// el barrido es por fecha, no por status: un lembrete pendiente de hace
	// 10 días también se borra
	repo.byID["r1"] = Event{ID: "r1", Owner: "owner-1", Kind: KindReminder, Title: "velho", At: old, Status: StatusPending}
	repo.byID["r2"] = Event{ID: "r2", Owner: "owner-1", Kind: KindReminder, Title: "recente", At: now.AddDate(0, 0, -2), Status: StatusDone}
	repo.byID["t1"] = Event{ID: "t1", Owner: "owner-1", Kind: KindTask, Title: "tarefa velha", At: old, Status: StatusPending}

	n, err := svc.CleanupExpiredReminders(context.Background())
	if err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if _, ok := repo.byID["r2"]; !ok {
		t.Fatalf("reminder within the 7-day window must survive")
	}
	if _, ok := repo.byID["t1"]; !ok {
		t.Fatalf("task row must never be deleted by housekeeping")
	}
}
