package llm

import (
	"errors"
	"testing"

	"lembra/internal/ports/nlu"
)

func TestParseIntentCreateEvent(t *testing.T) {
	content := `{
		"intent": "create_event",
		"draft": {
			"kind": "compromisso",
			"title": "Consulta dentista",
			"at": "2026-09-04T15:00:00-03:00"
		}
	}`

	intent, err := parseIntent(content)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Kind != nlu.IntentCreateEvent {
		t.Fatalf("kind = %s", intent.Kind)
	}
	if intent.Draft == nil || intent.Draft.Title != "Consulta dentista" {
		t.Fatalf("draft = %+v", intent.Draft)
	}
	if intent.Draft.At.Hour() != 15 {
		t.Fatalf("at = %v", intent.Draft.At)
	}
}

func TestParseIntentStripsCodeFences(t *testing.T) {
	content := "```json\n{\"intent\":\"query_agenda\"}\n```"

	intent, err := parseIntent(content)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Kind != nlu.IntentQueryAgenda {
		t.Fatalf("kind = %s", intent.Kind)
	}
}

func TestParseIntentUnknownIsUnparseable(t *testing.T) {
	if _, err := parseIntent(`{"intent":"unknown"}`); !errors.Is(err, nlu.ErrUnparseable) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseIntentGarbageIsUnparseable(t *testing.T) {
	if _, err := parseIntent("desculpa, não entendi"); !errors.Is(err, nlu.ErrUnparseable) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseIntentBadDateIsUnparseable(t *testing.T) {
	content := `{"intent":"create_event","draft":{"title":"x","at":"amanhã"}}`
	if _, err := parseIntent(content); !errors.Is(err, nlu.ErrUnparseable) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseIntentRecurringFields(t *testing.T) {
	content := `{
		"intent": "create_recurring",
		"draft": {
			"title": "Natação",
			"at": "2026-09-07T08:00:00-03:00",
			"frequency": "semanal",
			"interval": 1,
			"weekdays": [1, 3],
			"duration_text": "3 meses"
		}
	}`

	intent, err := parseIntent(content)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Kind != nlu.IntentCreateRecurring {
		t.Fatalf("kind = %s", intent.Kind)
	}
	d := intent.Draft
	if d.Frequency != "semanal" || len(d.Weekdays) != 2 || d.DurationText != "3 meses" {
		t.Fatalf("draft = %+v", d)
	}
}
