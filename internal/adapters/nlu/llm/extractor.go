package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lembra/internal/platform/braziltime"
	"lembra/internal/platform/httpclient"
	"lembra/internal/ports/nlu"
)

var (
	ErrNotConfigured = errors.New("llm client not configured")
	ErrUpstream      = errors.New("llm upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	Timeout time.Duration
}

// Extractor clasifica mensajes libres con un modelo de chat. El contrato con
// el modelo es un JSON estricto; cualquier respuesta que no parsea se trata
// como inentendible, nunca se adivina.
type Extractor struct {
	http   *httpclient.Client
	apiKey string
	model  string
}

func NewExtractor(cfg Config) (*Extractor, error) {
	c, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Extractor{
		http:   c,
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
	}, nil
}

func (e *Extractor) IsConfigured() bool {
	return e != nil && e.http != nil && e.http.BaseURL != "" && e.apiKey != ""
}

const systemPrompt = `Você é o classificador de intenções de um assistente pessoal de lembretes.
Responda SOMENTE com um JSON válido, sem texto extra, no formato:
{
  "intent": "create_event|create_recurring|standalone_reminder|edit_event|cancel_event|mark_status|snooze|query_agenda|favorite_place|casual",
  "target_query": "...",
  "mark_done": true,
  "snooze_minutes": 30,
  "place_label": "...",
  "place_address": "...",
  "reply": "...",
  "draft": {
    "kind": "aniversario|compromisso|tarefa|saude|lembrete",
    "title": "...",
    "description": "...",
    "person": "...",
    "address": "...",
    "at": "2026-01-02T15:04:05-03:00",
    "checklist": ["..."],
    "frequency": "diaria|semanal|mensal",
    "interval": 1,
    "weekdays": [1,3],
    "month_day": 5,
    "duration_text": "3 meses"
  }
}
Datas sempre em RFC3339 com offset -03:00. Se não entender a mensagem, responda {"intent":"unknown"}.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type wireDraft struct {
	Kind         string   `json:"kind"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Person       string   `json:"person"`
	Address      string   `json:"address"`
	At           string   `json:"at"`
	Checklist    []string `json:"checklist"`
	Frequency    string   `json:"frequency"`
	Interval     int      `json:"interval"`
	Weekdays     []int    `json:"weekdays"`
	MonthDay     int      `json:"month_day"`
	DurationText string   `json:"duration_text"`
}

type wireIntent struct {
	Intent        string     `json:"intent"`
	TargetQuery   string     `json:"target_query"`
	MarkDone      bool       `json:"mark_done"`
	SnoozeMinutes int        `json:"snooze_minutes"`
	PlaceLabel    string     `json:"place_label"`
	PlaceAddress  string     `json:"place_address"`
	Reply         string     `json:"reply"`
	Draft         *wireDraft `json:"draft"`
}

func (e *Extractor) Extract(ctx context.Context, text string, ref time.Time) (nlu.Intent, error) {
	if !e.IsConfigured() {
		return nlu.Intent{}, ErrNotConfigured
	}

	userPrompt := fmt.Sprintf("Data de referência: %s (%s)\nMensagem: %s",
		braziltime.Format(ref),
		weekdayPT(ref.In(braziltime.Zone).Weekday()),
		text)

	req := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	var resp chatResponse
	err := e.http.DoJSON(ctx, http.MethodPost, "/v1/chat/completions", map[string]string{
		"Authorization": "Bearer " + e.apiKey,
	}, req, &resp)
	if err != nil {
		return nlu.Intent{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return nlu.Intent{}, fmt.Errorf("%w: empty choices", ErrUpstream)
	}

	return parseIntent(resp.Choices[0].Message.Content)
}

func parseIntent(content string) (nlu.Intent, error) {
	content = strings.TrimSpace(content)
	// algunos modelos envuelven el JSON en fences aunque se les pida que no
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var w wireIntent
	if err := json.Unmarshal([]byte(content), &w); err != nil {
		return nlu.Intent{}, nlu.ErrUnparseable
	}

	kind, ok := intentKinds[w.Intent]
	if !ok {
		return nlu.Intent{}, nlu.ErrUnparseable
	}

	out := nlu.Intent{
		Kind:          kind,
		TargetQuery:   strings.TrimSpace(w.TargetQuery),
		MarkDone:      w.MarkDone,
		SnoozeMinutes: w.SnoozeMinutes,
		PlaceLabel:    strings.TrimSpace(w.PlaceLabel),
		PlaceAddress:  strings.TrimSpace(w.PlaceAddress),
		Reply:         strings.TrimSpace(w.Reply),
	}

	if w.Draft != nil {
		d := &nlu.EventDraft{
			Kind:         w.Draft.Kind,
			Title:        strings.TrimSpace(w.Draft.Title),
			Description:  strings.TrimSpace(w.Draft.Description),
			Person:       strings.TrimSpace(w.Draft.Person),
			Address:      strings.TrimSpace(w.Draft.Address),
			Checklist:    w.Draft.Checklist,
			Frequency:    w.Draft.Frequency,
			Interval:     w.Draft.Interval,
			Weekdays:     w.Draft.Weekdays,
			MonthDay:     w.Draft.MonthDay,
			DurationText: strings.TrimSpace(w.Draft.DurationText),
		}
		if w.Draft.At != "" {
			at, err := braziltime.Parse(w.Draft.At)
			if err != nil {
				return nlu.Intent{}, nlu.ErrUnparseable
			}
			d.At = at
		}
		out.Draft = d
	}

	return out, nil
}

var intentKinds = map[string]nlu.IntentKind{
	"create_event":        nlu.IntentCreateEvent,
	"create_recurring":    nlu.IntentCreateRecurring,
	"standalone_reminder": nlu.IntentStandaloneNote,
	"edit_event":          nlu.IntentEditEvent,
	"cancel_event":        nlu.IntentCancelEvent,
	"mark_status":         nlu.IntentMarkStatus,
	"snooze":              nlu.IntentSnooze,
	"query_agenda":        nlu.IntentQueryAgenda,
	"favorite_place":      nlu.IntentFavoritePlace,
	"casual":              nlu.IntentCasual,
}

func weekdayPT(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "domingo"
	case time.Monday:
		return "segunda-feira"
	case time.Tuesday:
		return "terça-feira"
	case time.Wednesday:
		return "quarta-feira"
	case time.Thursday:
		return "quinta-feira"
	case time.Friday:
		return "sexta-feira"
	default:
		return "sábado"
	}
}
