package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lembra/internal/domain/events"
	"lembra/internal/domain/recurrence"
	"lembra/internal/domain/users"
	"lembra/internal/platform/braziltime"
	"lembra/internal/platform/logger"
	"lembra/internal/ports/nlu"
	"lembra/internal/ports/transport"
)

const (
	contextWindow = 5 // turnos de memoria de trabajo

	// presupuesto de respuesta antes de entregar al transporte
	maxReplyChars      = 900
	maxReplyCharsImage = 1800
)

var ErrInvalidInput = errors.New("invalid input")

// QuotedLookup resuelve a qué evento apunta un mensaje citado (el id viene
// del proveedor de mensajería; el vínculo vive en el log de despachos).
type QuotedLookup interface {
	EventByMessage(ctx context.Context, messageID string) (events.Event, bool, error)
}

// Service procesa un mensaje entrante de punta a punta: resuelve el estado
// conversacional, ejecuta la acción y persiste el turno con el contexto
// resultante.
type Service struct {
	repo       Repository
	events     *events.Service
	recurrence *recurrence.Service
	users      *users.Service
	extractor  nlu.Extractor
	sender     transport.Sender
	quoted     QuotedLookup
	log        logger.Logger
	now        func() time.Time
}

func NewService(
	repo Repository,
	eventsSvc *events.Service,
	recurrenceSvc *recurrence.Service,
	usersSvc *users.Service,
	extractor nlu.Extractor,
	sender transport.Sender,
	quoted QuotedLookup,
	log logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:       repo,
		events:     eventsSvc,
		recurrence: recurrenceSvc,
		users:      usersSvc,
		extractor:  extractor,
		sender:     sender,
		quoted:     quoted,
		log:        log,
		now:        braziltime.Now,
	}
}

type InboundMessage struct {
	Phone string
	Name  string
	Text  string

	// QuotedMessageID: id del mensaje del asistente al que el usuario
	// respondió, si aplica.
	QuotedMessageID string

	// HasImage: el mensaje traía imagen (sube el presupuesto de respuesta).
	HasImage bool
}

// HandleInbound procesa un mensaje y devuelve la respuesta ya enviada.
func (s *Service) HandleInbound(ctx context.Context, in InboundMessage) (string, error) {
	if strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Text) == "" {
		return "", ErrInvalidInput
	}

	user, err := s.users.Bind(ctx, in.Phone, in.Name)
	if err != nil {
		return "", err
	}

	log := s.log.With(map[string]any{"owner": user.ID})

	convo := s.loadContext(ctx, user.ID, in.QuotedMessageID, log)

	reply, next := s.dispatch(ctx, user, in.Text, convo, log)

	reply = truncateReply(reply, in.HasImage)

	if _, err := s.sender.Send(ctx, user.Phone, reply); err != nil {
		log.Error("reply send failed", map[string]any{"error": err.Error()})
	}

	turn := Turn{
		ID:               uuid.NewString(),
		Owner:            user.ID,
		UserMessage:      in.Text,
		AssistantMessage: reply,
		Context:          next,
		CreatedAt:        s.now(),
	}
	if err := s.repo.AppendTurn(ctx, turn); err != nil {
		log.Error("turn persist failed", map[string]any{"error": err.Error()})
	}

	return reply, nil
}

// loadContext arma la memoria de trabajo: pendiente del último turno +
// citado resuelto del mensaje actual.
func (s *Service) loadContext(ctx context.Context, owner, quotedID string, log logger.Logger) Context {
	var c Context

	turns, err := s.repo.LastTurns(ctx, owner, contextWindow)
	if err != nil {
		log.Warn("context load failed", map[string]any{"error": err.Error()})
	} else if len(turns) > 0 && turns[0].Context != nil {
		c.Pending = turns[0].Context.Pending
	}

	if quotedID != "" && s.quoted != nil {
		e, ok, err := s.quoted.EventByMessage(ctx, quotedID)
		if err != nil {
			log.Warn("quoted lookup failed", map[string]any{"error": err.Error()})
		} else if ok {
			c.Quoted = &QuotedMessage{MessageID: quotedID, EventID: e.ID, EventTitle: e.Title}
		}
	}

	return c
}

// dispatch resuelve y ejecuta. Devuelve la respuesta y el contexto que queda
// vigente (nil => contexto limpio).
func (s *Service) dispatch(ctx context.Context, user users.User, text string, convo Context, log logger.Logger) (string, *Context) {
	switch d := Resolve(text, convo); d.Kind {
	case DecisionConfirmPending:
		if len(convo.Pending.Options) > 0 {
			// "sim" no elige: el menú sigue esperando un número
			return fmt.Sprintf("Me diz qual, de 1 a %d. 🙂", len(convo.Pending.Options)), &Context{Pending: convo.Pending}
		}
		return s.applyPending(ctx, user, convo.Pending, log), nil

	case DecisionRejectPending:
		return "Tudo bem, deixei pra lá. 👍", nil

	case DecisionMenuChoice:
		return s.applyMenuChoice(ctx, user, convo.Pending, d.Choice, log)

	case DecisionCompleteQuoted:
		return s.completeEvent(ctx, convo.Quoted.EventID, convo.Quoted.EventTitle), nil

	case DecisionClarify:
		return "Qual evento você concluiu? Me diz o nome dele. 🙂", nil

	default:
		return s.handleFresh(ctx, user, text, log)
	}
}

// applyPending ejecuta la mutación confirmada. Un pendiente que ya no calza
// con el estado actual (evento cerrado/borrado) es no-op informativo, no
// error.
func (s *Service) applyPending(ctx context.Context, user users.User, p *PendingAction, log logger.Logger) string {
	switch p.Kind {
	case PendingCreate:
		e, err := s.events.Create(ctx, user.ID, draftToCreate(p.Draft))
		if err != nil {
			log.Error("pending create failed", map[string]any{"error": err.Error()})
			return "Não consegui salvar o evento, tenta de novo?"
		}
		return fmt.Sprintf("Anotado! %s %s. ✅", e.Title, braziltime.HumanUntil(s.now(), e.At))

	case PendingCreateRecurring:
		_, generated, err := s.recurrence.CreateRecurring(ctx, user.ID, recurrence.CreateRecurringInput{
			Template:     draftToCreate(p.Draft),
			Frequency:    parseFrequency(p.Draft.Frequency),
			Interval:     p.Draft.Interval,
			Weekdays:     intWeekdays(p.Draft.Weekdays),
			MonthDay:     p.Draft.MonthDay,
			DurationText: p.Draft.DurationText,
		})
		if err != nil && len(generated) == 0 {
			log.Error("pending recurring failed", map[string]any{"error": err.Error()})
			return "Não consegui criar a recorrência, tenta de novo?"
		}
		if err != nil {
			// generación parcial: avisa pero no descarta lo creado
			log.Warn("recurring generation aborted midway", map[string]any{"error": err.Error()})
		}
		return fmt.Sprintf("Criado! Agendei %d ocorrências de %s. 🔁", len(generated)+1, p.Draft.Title)

	case PendingEdit:
		_, err := s.events.Edit(ctx, p.EventID, events.EditInput{
			Title:  p.NewTitle,
			At:     p.NewAt,
			Person: p.NewPerson,
		})
		switch {
		case errors.Is(err, events.ErrAlreadyClosed), errors.Is(err, events.ErrNotFound):
			return fmt.Sprintf("%s já foi encerrado, não mexi em nada.", p.EventTitle)
		case err != nil:
			log.Error("pending edit failed", map[string]any{"error": err.Error()})
			return "Não consegui editar, tenta de novo?"
		}
		return fmt.Sprintf("Pronto, atualizei %s. ✏️", p.EventTitle)

	case PendingCancel:
		_, err := s.events.MarkStatus(ctx, p.EventID, events.StatusCanceled)
		switch {
		case errors.Is(err, events.ErrAlreadyClosed), errors.Is(err, events.ErrNotFound):
			return fmt.Sprintf("%s já estava encerrado, não mexi em nada.", p.EventTitle)
		case err != nil:
			log.Error("pending cancel failed", map[string]any{"error": err.Error()})
			return "Não consegui cancelar, tenta de novo?"
		}
		return fmt.Sprintf("Cancelado: %s. 🗑️", p.EventTitle)

	case PendingMarkDone:
		return s.completeEvent(ctx, p.EventID, p.EventTitle)

	default:
		return "Não entendi o que confirmar. 🤔"
	}
}

func (s *Service) applyMenuChoice(ctx context.Context, user users.User, p *PendingAction, choice int, log logger.Logger) (string, *Context) {
	if choice < 1 || choice > len(p.Options) {
		// elección fuera de rango: el menú sigue vigente
		return fmt.Sprintf("Escolhe um número de 1 a %d. 🙂", len(p.Options)), &Context{Pending: p}
	}

	resolved := *p
	resolved.EventID = p.Options[choice-1]
	resolved.EventTitle = p.OptionTitles[choice-1]
	resolved.Options = nil
	resolved.OptionTitles = nil

	// el dígito YA es la confirmación explícita del target: aplica directo
	return s.applyPending(ctx, user, &resolved, log), nil
}

func (s *Service) completeEvent(ctx context.Context, eventID, title string) string {
	_, err := s.events.MarkStatus(ctx, eventID, events.StatusDone)
	switch {
	case errors.Is(err, events.ErrAlreadyClosed), errors.Is(err, events.ErrNotFound):
		return fmt.Sprintf("%s já estava encerrado por aqui. 👍", title)
	case err != nil:
		return "Não consegui marcar como concluído, tenta de novo?"
	}
	return fmt.Sprintf("Boa! Marquei %s como concluído. ✅", title)
}

// handleFresh delega al NLU y ejecuta el intent clasificado.
func (s *Service) handleFresh(ctx context.Context, user users.User, text string, log logger.Logger) (string, *Context) {
	intent, err := s.extractor.Extract(ctx, text, s.now())
	if err != nil {
		if !errors.Is(err, nlu.ErrUnparseable) {
			log.Error("nlu extract failed", map[string]any{"error": err.Error()})
		}
		// falla de schema/clasificación = intención ambigua: se pregunta,
		// nunca default silencioso
		return "Não entendi direito. Pode repetir com outras palavras?", nil
	}

	switch intent.Kind {
	case nlu.IntentCreateEvent:
		return s.proposeCreate(intent, PendingCreate)

	case nlu.IntentCreateRecurring:
		return s.proposeCreate(intent, PendingCreateRecurring)

	case nlu.IntentStandaloneNote:
		// lembrete avulso: flujo directo, sin confirmación
		if intent.Draft == nil {
			return "Me diz o que lembrar e quando. 🙂", nil
		}
		in := draftToCreate(intent.Draft)
		in.Kind = events.KindReminder
		e, err := s.events.Create(ctx, user.ID, in)
		if err != nil {
			log.Error("standalone reminder failed", map[string]any{"error": err.Error()})
			return "Não consegui criar o lembrete, tenta de novo?", nil
		}
		return fmt.Sprintf("Te lembro de %s %s. ⏰", e.Title, braziltime.HumanUntil(s.now(), e.At)), nil

	case nlu.IntentEditEvent:
		return s.proposeOnTarget(ctx, user, intent, PendingEdit, log)

	case nlu.IntentCancelEvent:
		return s.proposeOnTarget(ctx, user, intent, PendingCancel, log)

	case nlu.IntentMarkStatus:
		return s.markByQuery(ctx, user, intent, log)

	case nlu.IntentSnooze:
		return s.snoozeByQuery(ctx, user, intent, log)

	case nlu.IntentQueryAgenda:
		return s.agendaReply(ctx, user, log), nil

	case nlu.IntentFavoritePlace:
		if _, err := s.users.SavePlace(ctx, user.ID, intent.PlaceLabel, intent.PlaceAddress); err != nil {
			log.Error("save place failed", map[string]any{"error": err.Error()})
			return "Não consegui salvar o lugar, tenta de novo?", nil
		}
		return fmt.Sprintf("Guardei: %s = %s. 📍", intent.PlaceLabel, intent.PlaceAddress), nil

	case nlu.IntentCasual:
		if intent.Reply != "" {
			return intent.Reply, nil
		}
		return "Tô aqui! Quer agendar alguma coisa?", nil

	default:
		return "Não entendi direito. Pode repetir com outras palavras?", nil
	}
}

// proposeCreate: creación en dos fases, siempre propone y espera "sim".
func (s *Service) proposeCreate(intent nlu.Intent, kind PendingKind) (string, *Context) {
	if intent.Draft == nil || strings.TrimSpace(intent.Draft.Title) == "" || intent.Draft.At.IsZero() {
		return "Me faltou o quê ou o quando. Pode completar?", nil
	}

	pending := &PendingAction{
		Kind:      kind,
		Draft:     intent.Draft,
		CreatedAt: s.now(),
	}
	verb := "agendar"
	if kind == PendingCreateRecurring {
		verb = "repetir"
	}
	reply := fmt.Sprintf("Vou %s: %s, %s (%s às %s). Confirma?",
		verb, intent.Draft.Title,
		braziltime.HumanUntil(s.now(), intent.Draft.At),
		braziltime.HumanDate(intent.Draft.At),
		braziltime.HumanClock(intent.Draft.At))
	return reply, &Context{Pending: pending}
}

// proposeOnTarget busca el evento nombrado y propone la mutación (dos fases).
// Múltiples candidatos => menú numérico.
func (s *Service) proposeOnTarget(ctx context.Context, user users.User, intent nlu.Intent, kind PendingKind, log logger.Logger) (string, *Context) {
	found, reply, ok := s.findTarget(ctx, user, intent.TargetQuery, log)
	if !ok {
		return reply, nil
	}

	pending := &PendingAction{Kind: kind, CreatedAt: s.now()}
	if intent.Draft != nil {
		if intent.Draft.Title != "" {
			pending.NewTitle = &intent.Draft.Title
		}
		if !intent.Draft.At.IsZero() {
			at := intent.Draft.At
			pending.NewAt = &at
		}
		if intent.Draft.Person != "" {
			pending.NewPerson = &intent.Draft.Person
		}
	}

	if len(found) > 1 {
		for _, e := range found {
			pending.Options = append(pending.Options, e.ID)
			pending.OptionTitles = append(pending.OptionTitles, e.Title)
		}
		return menuReply(found), &Context{Pending: pending}
	}

	e := found[0]
	pending.EventID = e.ID
	pending.EventTitle = e.Title

	var prompt string
	switch kind {
	case PendingCancel:
		prompt = fmt.Sprintf("Cancelar %s (%s às %s)?", e.Title,
			braziltime.HumanDate(e.At), braziltime.HumanClock(e.At))
	default:
		prompt = fmt.Sprintf("Alterar %s? Me confirma.", e.Title)
	}
	return prompt, &Context{Pending: pending}
}

// markByQuery: "marcar X como concluído" trae target + intención inequívocos,
// aplica directo (excepción de la regla de dos fases).
func (s *Service) markByQuery(ctx context.Context, user users.User, intent nlu.Intent, log logger.Logger) (string, *Context) {
	found, reply, ok := s.findTarget(ctx, user, intent.TargetQuery, log)
	if !ok {
		return reply, nil
	}

	if len(found) > 1 {
		pending := &PendingAction{Kind: PendingMarkDone, CreatedAt: s.now()}
		if !intent.MarkDone {
			pending.Kind = PendingCancel
		}
		for _, e := range found {
			pending.Options = append(pending.Options, e.ID)
			pending.OptionTitles = append(pending.OptionTitles, e.Title)
		}
		return menuReply(found), &Context{Pending: pending}
	}

	e := found[0]
	if intent.MarkDone {
		return s.completeEvent(ctx, e.ID, e.Title), nil
	}
	_, err := s.events.MarkStatus(ctx, e.ID, events.StatusCanceled)
	if errors.Is(err, events.ErrAlreadyClosed) {
		return fmt.Sprintf("%s já estava encerrado. 👍", e.Title), nil
	}
	if err != nil {
		log.Error("mark canceled failed", map[string]any{"error": err.Error()})
		return "Não consegui cancelar, tenta de novo?", nil
	}
	return fmt.Sprintf("Cancelado: %s. 🗑️", e.Title), nil
}

func (s *Service) snoozeByQuery(ctx context.Context, user users.User, intent nlu.Intent, log logger.Logger) (string, *Context) {
	found, reply, ok := s.findTarget(ctx, user, intent.TargetQuery, log)
	if !ok {
		return reply, nil
	}
	if len(found) > 1 {
		return "Achei mais de um evento com esse nome, me diz qual exatamente. 🙂", nil
	}

	minutes := intent.SnoozeMinutes
	if minutes <= 0 {
		minutes = 30
	}
	e, err := s.events.Snooze(ctx, found[0].ID, time.Duration(minutes)*time.Minute)
	if err != nil {
		log.Error("snooze failed", map[string]any{"error": err.Error()})
		return "Não consegui adiar, tenta de novo?", nil
	}
	return fmt.Sprintf("Adiei %s para %s. 😴", e.Title, braziltime.HumanClock(e.At)), nil
}

func (s *Service) agendaReply(ctx context.Context, user users.User, log logger.Logger) string {
	agenda, err := s.events.Agenda(ctx, user.ID, 7)
	if err != nil {
		log.Error("agenda query failed", map[string]any{"error": err.Error()})
		return "Não consegui consultar sua agenda agora."
	}
	if len(agenda) == 0 {
		return "Agenda livre nos próximos dias! 🎉"
	}

	var b strings.Builder
	b.WriteString("Sua agenda:")
	for _, e := range agenda {
		fmt.Fprintf(&b, "\n• %s — %s às %s", e.Title,
			braziltime.HumanDate(e.At), braziltime.HumanClock(e.At))
	}
	return b.String()
}

// findTarget corre la búsqueda en dos etapas y normaliza los casos de borde.
// ok=false => reply ya trae la respuesta al usuario.
func (s *Service) findTarget(ctx context.Context, user users.User, query string, log logger.Logger) ([]events.Event, string, bool) {
	if strings.TrimSpace(query) == "" {
		return nil, "De qual evento você tá falando? Me diz o nome. 🙂", false
	}
	res, err := s.events.Find(ctx, user.ID, query, events.DefaultSearchHorizon)
	if err != nil {
		log.Error("event search failed", map[string]any{"error": err.Error()})
		return nil, "Deu ruim na busca, tenta de novo?", false
	}
	if len(res.Events) == 0 {
		return nil, fmt.Sprintf("Não achei nenhum evento com \"%s\" nos próximos dias.", query), false
	}
	return res.Events, "", true
}

func menuReply(found []events.Event) string {
	var b strings.Builder
	b.WriteString("Achei mais de um, qual deles?")
	for i, e := range found {
		fmt.Fprintf(&b, "\n%d. %s — %s às %s", i+1, e.Title,
			braziltime.HumanDate(e.At), braziltime.HumanClock(e.At))
	}
	b.WriteString("\nResponde com o número. 🙂")
	return b.String()
}

func draftToCreate(d *nlu.EventDraft) events.CreateInput {
	return events.CreateInput{
		Kind:        events.ParseKind(d.Kind),
		Title:       d.Title,
		Description: d.Description,
		Person:      d.Person,
		Address:     d.Address,
		At:          d.At,
		Checklist:   d.Checklist,
	}
}

func parseFrequency(s string) recurrence.Frequency {
	switch recurrence.Frequency(s) {
	case recurrence.FreqDaily, recurrence.FreqWeekly, recurrence.FreqMonthly:
		return recurrence.Frequency(s)
	default:
		return recurrence.FreqWeekly
	}
}

func intWeekdays(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, time.Weekday(d))
		}
	}
	return out
}

// truncateReply recorta al presupuesto de presentación antes del transporte.
func truncateReply(reply string, hasImage bool) string {
	limit := maxReplyChars
	if hasImage {
		limit = maxReplyCharsImage
	}
	runes := []rune(reply)
	if len(runes) <= limit {
		return reply
	}
	return string(runes[:limit-1]) + "…"
}
