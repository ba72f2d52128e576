package dialogue

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"lembra/internal/domain/events"
	"lembra/internal/domain/users"
	"lembra/internal/platform/braziltime"
	"lembra/internal/platform/logger"
	"lembra/internal/ports/nlu"
)

// -------------------------
// Repos y fakes in-memory
// -------------------------

type memEvents struct {
	byID map[string]events.Event
}

func newMemEvents() *memEvents { return &memEvents{byID: map[string]events.Event{}} }

func (r *memEvents) Create(ctx context.Context, e events.Event) error {
	r.byID[e.ID] = e
	return nil
}

func (r *memEvents) GetByID(ctx context.Context, id string) (events.Event, error) {
	e, ok := r.byID[id]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return e, nil
}

func (r *memEvents) Update(ctx context.Context, e events.Event) error {
	if _, ok := r.byID[e.ID]; !ok {
		return events.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *memEvents) ListWindow(ctx context.Context, f events.WindowFilter) ([]events.Event, error) {
	out := make([]events.Event, 0)
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
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memEvents) DeleteExpiredReminders(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

type memUsers struct {
	byPhone map[string]users.User
	places  map[string]users.Place
}

func newMemUsers() *memUsers {
	return &memUsers{byPhone: map[string]users.User{}, places: map[string]users.Place{}}
}

func (r *memUsers) UpsertUser(ctx context.Context, u users.User) error {
	r.byPhone[u.Phone] = u
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (users.User, error) {
	for _, u := range r.byPhone {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *memUsers) GetByPhone(ctx context.Context, phone string) (users.User, error) {
	u, ok := r.byPhone[phone]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *memUsers) UpsertPlace(ctx context.Context, p users.Place) error {
	r.places[p.Owner+"/"+p.Label] = p
	return nil
}

func (r *memUsers) GetPlace(ctx context.Context, owner, label string) (users.Place, error) {
	p, ok := r.places[owner+"/"+label]
	if !ok {
		return users.Place{}, users.ErrNotFound
	}
	return p, nil
}

func (r *memUsers) ListPlaces(ctx context.Context, owner string) ([]users.Place, error) {
	out := make([]users.Place, 0)
	for _, p := range r.places {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

type memTurns struct {
	turns []Turn
}

func (r *memTurns) AppendTurn(ctx context.Context, t Turn) error {
	r.turns = append(r.turns, t)
	return nil
}

func (r *memTurns) LastTurns(ctx context.Context, owner string, n int) ([]Turn, error) {
	out := make([]Turn, 0, n)
	for i := len(r.turns) - 1; i >= 0 && len(out) < n; i-- {
		if r.turns[i].Owner == owner {
			out = append(out, r.turns[i])
		}
	}
	return out, nil
}

// stubExtractor responde por texto exacto; lo demás es inentendible.
type stubExtractor struct {
	byText map[string]nlu.Intent
}

func (x *stubExtractor) Extract(ctx context.Context, text string, ref time.Time) (nlu.Intent, error) {
	if in, ok := x.byText[text]; ok {
		return in, nil
	}
	return nlu.Intent{}, nlu.ErrUnparseable
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, phone, text string) (string, error) {
	f.sent = append(f.sent, text)
	return "msg-out", nil
}

type fakeQuoted struct {
	byMessage map[string]events.Event
}

func (f *fakeQuoted) EventByMessage(ctx context.Context, messageID string) (events.Event, bool, error) {
	e, ok := f.byMessage[messageID]
	return e, ok, nil
}

// -------------------------
// Fixture
// -------------------------

type fixture struct {
	svc       *Service
	events    *memEvents
	users     *memUsers
	turns     *memTurns
	extractor *stubExtractor
	sender    *fakeSender
	quoted    *fakeQuoted
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		events:    newMemEvents(),
		users:     newMemUsers(),
		turns:     &memTurns{},
		extractor: &stubExtractor{byText: map[string]nlu.Intent{}},
		sender:    &fakeSender{},
		quoted:    &fakeQuoted{byMessage: map[string]events.Event{}},
		now:       braziltime.Now(),
	}
	f.svc = NewService(
		f.turns,
		events.NewService(f.events),
		nil, // recurrencia no se ejercita acá
		users.NewService(f.users),
		f.extractor,
		f.sender,
		f.quoted,
		logger.Nop(),
	)
	return f
}

func (f *fixture) seedEvent(id, title string, in time.Duration) events.Event {
	e := events.Event{
		ID:     id,
		Owner:  f.ownerID(),
		Kind:   events.KindAppointment,
		Title:  title,
		At:     f.now.Add(in),
		Status: events.StatusPending,
	}
	f.events.byID[id] = e
	return e
}

// ownerID fija el dueño del teléfono de prueba (lo crea si hace falta).
func (f *fixture) ownerID() string {
	if u, err := f.users.GetByPhone(context.Background(), "+5511999990000"); err == nil {
		return u.ID
	}
	u := users.User{ID: "owner-1", Name: "Ana", Phone: "+5511999990000"}
	f.users.byPhone[u.Phone] = u
	return u.ID
}

func (f *fixture) handle(t *testing.T, text, quotedID string) string {
	t.Helper()
	reply, err := f.svc.HandleInbound(context.Background(), InboundMessage{
		Phone:           "+5511999990000",
		Name:            "Ana",
		Text:            text,
		QuotedMessageID: quotedID,
	})
	if err != nil {
		t.Fatalf("HandleInbound(%q): %v", text, err)
	}
	return reply
}

// -------------------------
// Tests
// -------------------------

func TestCreateFlowTwoPhase(t *testing.T) {
	f := newFixture(t)
	at := f.now.Add(48 * time.Hour)
	f.extractor.byText["agendar dentista sexta 15h"] = nlu.Intent{
		Kind:  nlu.IntentCreateEvent,
		Draft: &nlu.EventDraft{Kind: "compromisso", Title: "Dentista", At: at},
	}

	reply := f.handle(t, "agendar dentista sexta 15h", "")
	if !strings.Contains(reply, "Dentista") || !strings.Contains(reply, "Confirma") {
		t.Fatalf("propuesta inesperada: %q", reply)
	}
	if len(f.events.byID) != 0 {
		t.Fatal("no debería crear nada antes de la confirmación")
	}

	f.handle(t, "sim", "")
	if len(f.events.byID) != 1 {
		t.Fatalf("eventos tras confirmar = %d, esperaba 1", len(f.events.byID))
	}
	for _, e := range f.events.byID {
		if e.Title != "Dentista" || e.Kind != events.KindAppointment {
			t.Fatalf("evento creado inesperado: %+v", e)
		}
	}
}

func TestConfirmAppliesPendingEdit(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)

	newAt := f.now.Add(26 * time.Hour)
	f.extractor.byText["muda a consulta pra mais tarde"] = nlu.Intent{
		Kind:        nlu.IntentEditEvent,
		TargetQuery: "consulta",
		Draft:       &nlu.EventDraft{At: newAt},
	}

	f.handle(t, "muda a consulta pra mais tarde", "")
	f.handle(t, "sim", "")

	got := f.events.byID["e1"]
	if !got.At.Equal(newAt.In(braziltime.Zone)) {
		t.Fatalf("At = %v, esperaba %v", got.At, newAt)
	}
}

func TestSubstantiveTextBypassesPending(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)
	f.seedEvent("e2", "Pagar fono", 48*time.Hour)

	f.extractor.byText["muda a consulta pra mais tarde"] = nlu.Intent{
		Kind:        nlu.IntentEditEvent,
		TargetQuery: "consulta",
		Draft:       &nlu.EventDraft{At: f.now.Add(30 * time.Hour)},
	}
	f.extractor.byText["marcar pagar fono como concluído"] = nlu.Intent{
		Kind:        nlu.IntentMarkStatus,
		TargetQuery: "fono",
		MarkDone:    true,
	}

	f.handle(t, "muda a consulta pra mais tarde", "")

	// pedido nuevo en vez de "sim": el pendiente de edición no secuestra
	reply := f.handle(t, "marcar pagar fono como concluído", "")
	if !strings.Contains(reply, "Pagar fono") {
		t.Fatalf("reply = %q", reply)
	}
	if f.events.byID["e2"].Status != events.StatusDone {
		t.Fatal("fono debería quedar concluído")
	}
	if f.events.byID["e1"].Status != events.StatusPending {
		t.Fatal("la consulta no debía tocarse")
	}
}

func TestRejectDiscardsPending(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)
	f.extractor.byText["cancela a consulta"] = nlu.Intent{
		Kind:        nlu.IntentCancelEvent,
		TargetQuery: "consulta",
	}

	f.handle(t, "cancela a consulta", "")
	f.handle(t, "não", "")

	if f.events.byID["e1"].Status != events.StatusPending {
		t.Fatal("el evento no debía cambiar tras rechazar")
	}

	// "sim" después del rechazo ya no tiene pendiente que confirmar
	f.handle(t, "sim", "")
	if f.events.byID["e1"].Status != events.StatusPending {
		t.Fatal("el pendiente debía quedar descartado")
	}
}

func TestMenuChoiceOnAmbiguousTarget(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)
	f.seedEvent("e2", "Consulta cardio", 48*time.Hour)
	f.extractor.byText["cancela a consulta"] = nlu.Intent{
		Kind:        nlu.IntentCancelEvent,
		TargetQuery: "consulta",
	}

	reply := f.handle(t, "cancela a consulta", "")
	if !strings.Contains(reply, "1.") || !strings.Contains(reply, "2.") {
		t.Fatalf("esperaba menú numerado, reply = %q", reply)
	}

	// las opciones vienen ordenadas por fecha: 2 = cardio
	f.handle(t, "2", "")
	if f.events.byID["e2"].Status != events.StatusCanceled {
		t.Fatal("cardio debía quedar cancelado")
	}
	if f.events.byID["e1"].Status != events.StatusPending {
		t.Fatal("dentista no debía tocarse")
	}
}

func TestQuotedCompletion(t *testing.T) {
	f := newFixture(t)
	e := f.seedEvent("e1", "Tomar remédio", 2*time.Hour)
	f.quoted.byMessage["wamid-1"] = e

	reply := f.handle(t, "feito", "wamid-1")
	if !strings.Contains(reply, "Tomar remédio") {
		t.Fatalf("reply = %q", reply)
	}
	if f.events.byID["e1"].Status != events.StatusDone {
		t.Fatal("el citado debía quedar concluído")
	}
}

func TestStalePendingIsInformativeNoop(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)
	f.extractor.byText["cancela a consulta"] = nlu.Intent{
		Kind:        nlu.IntentCancelEvent,
		TargetQuery: "consulta",
	}

	f.handle(t, "cancela a consulta", "")

	// el evento se cierra por otro lado antes de la confirmación
	e := f.events.byID["e1"]
	e.Status = events.StatusDone
	f.events.byID["e1"] = e

	reply := f.handle(t, "sim", "")
	if !strings.Contains(reply, "já") {
		t.Fatalf("esperaba no-op informativo, reply = %q", reply)
	}
	if f.events.byID["e1"].Status != events.StatusDone {
		t.Fatal("el estado final no debía cambiar")
	}
}

func TestStandaloneReminderSkipsConfirmation(t *testing.T) {
	f := newFixture(t)
	at := f.now.Add(3 * time.Hour)
	f.extractor.byText["me lembra de pagar o boleto às 18h"] = nlu.Intent{
		Kind:  nlu.IntentStandaloneNote,
		Draft: &nlu.EventDraft{Title: "Pagar o boleto", At: at},
	}

	f.handle(t, "me lembra de pagar o boleto às 18h", "")

	if len(f.events.byID) != 1 {
		t.Fatalf("eventos = %d, esperaba 1 (sin fase de confirmación)", len(f.events.byID))
	}
	for _, e := range f.events.byID {
		if e.Kind != events.KindReminder {
			t.Fatalf("kind = %s, esperaba lembrete", e.Kind)
		}
	}
}

func TestUnparseableAsksForClarification(t *testing.T) {
	f := newFixture(t)
	reply := f.handle(t, "asdf qwer zxcv", "")
	if !strings.Contains(reply, "Não entendi") {
		t.Fatalf("reply = %q", reply)
	}
	if len(f.events.byID) != 0 {
		t.Fatal("nada debía crearse")
	}
}

func TestFavoritePlaceSaved(t *testing.T) {
	f := newFixture(t)
	f.extractor.byText["salva o endereço da escola: rua x 123"] = nlu.Intent{
		Kind:         nlu.IntentFavoritePlace,
		PlaceLabel:   "escola",
		PlaceAddress: "Rua X, 123",
	}

	f.handle(t, "salva o endereço da escola: rua x 123", "")

	p, err := f.users.GetPlace(context.Background(), f.ownerID(), "escola")
	if err != nil || p.Address != "Rua X, 123" {
		t.Fatalf("place = %+v, err = %v", p, err)
	}
}

func TestAgendaListsUpcoming(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)
	f.seedEvent("e2", "Reunião escola", 48*time.Hour)
	f.extractor.byText["o que tenho essa semana"] = nlu.Intent{Kind: nlu.IntentQueryAgenda}

	reply := f.handle(t, "o que tenho essa semana", "")
	if !strings.Contains(reply, "Consulta dentista") || !strings.Contains(reply, "Reunião escola") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestReplyTruncatedToLimit(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("lembra de beber água ", 100)
	f.extractor.byText["oi"] = nlu.Intent{Kind: nlu.IntentCasual, Reply: long}

	reply := f.handle(t, "oi", "")
	if got := len([]rune(reply)); got > maxReplyChars {
		t.Fatalf("len(reply) = %d runas, presupuesto %d", got, maxReplyChars)
	}
	if !strings.HasSuffix(reply, "…") {
		t.Fatalf("esperaba recorte con elipsis, fin = %q", reply[len(reply)-8:])
	}
}

func TestTurnsPersistedWithContext(t *testing.T) {
	f := newFixture(t)
	f.seedEvent("e1", "Consulta dentista", 24*time.Hour)
	f.extractor.byText["cancela a consulta"] = nlu.Intent{
		Kind:        nlu.IntentCancelEvent,
		TargetQuery: "consulta",
	}

	f.handle(t, "cancela a consulta", "")

	last, err := f.turns.LastTurns(context.Background(), f.ownerID(), 1)
	if err != nil || len(last) != 1 {
		t.Fatalf("turns = %d, err = %v", len(last), err)
	}
	turn := last[0]
	if turn.Context == nil || turn.Context.Pending == nil {
		t.Fatal("el turno debía guardar el pendiente")
	}
	if turn.Context.Pending.Kind != PendingCancel || turn.Context.Pending.EventID != "e1" {
		t.Fatalf("pendiente = %+v", turn.Context.Pending)
	}

	f.handle(t, "sim", "")
	last, _ = f.turns.LastTurns(context.Background(), f.ownerID(), 1)
	if last[0].Context != nil && last[0].Context.Pending != nil {
		t.Fatal("el contexto debía quedar limpio tras confirmar")
	}
}

func TestEmptyInboundRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleInbound(context.Background(), InboundMessage{Phone: "", Text: "oi"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, esperaba ErrInvalidInput", err)
	}
	_, err = f.svc.HandleInbound(context.Background(), InboundMessage{Phone: "+55", Text: "  "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, esperaba ErrInvalidInput", err)
	}
}
