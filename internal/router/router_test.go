package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lembra/internal/adapters/auth/webhook"
	"lembra/internal/platform/braziltime"
	"lembra/internal/ports/nlu"
	"lembra/internal/router"
)

type stubExtractor struct {
	byText map[string]nlu.Intent
}

func (x *stubExtractor) Extract(ctx context.Context, text string, ref time.Time) (nlu.Intent, error) {
	if in, ok := x.byText[text]; ok {
		return in, nil
	}
	return nlu.Intent{}, nlu.ErrUnparseable
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestWebhookFlowEndToEnd(t *testing.T) {
	// aniversario mañana: el kind 1d aplica sin depender de la hora del tick
	at := braziltime.Now().Add(24 * time.Hour)
	extractor := &stubExtractor{byText: map[string]nlu.Intent{
		"aniversário da júlia amanhã": {
			Kind:  nlu.IntentCreateEvent,
			Draft: &nlu.EventDraft{Kind: "aniversario", Title: "Aniversário da Júlia", At: at},
		},
	}}

	ts := httptest.NewServer(router.NewRouter(router.Options{Extractor: extractor}))
	defer ts.Close()

	// 1) mensaje libre => propuesta, nada creado todavía
	reply := postMessage(t, ts.URL, "", "aniversário da júlia amanhã")
	if !strings.Contains(reply, "Júlia") || !strings.Contains(reply, "Confirma") {
		t.Fatalf("reply = %q", reply)
	}

	// 2) confirmación => evento creado
	reply = postMessage(t, ts.URL, "", "sim")
	if !strings.Contains(reply, "Júlia") {
		t.Fatalf("reply = %q", reply)
	}

	// 3) el scheduler lo ve y despacha el 1d
	stats := postJob(t, ts.URL, "/jobs/reminders/run")
	if stats["evaluated"].(float64) < 1 {
		t.Fatalf("evaluated = %v", stats["evaluated"])
	}
	if stats["sent"].(float64) < 1 {
		t.Fatalf("sent = %v", stats["sent"])
	}

	// 4) segundo tick: dedup, nada nuevo sale
	stats = postJob(t, ts.URL, "/jobs/reminders/run")
	if stats["sent"].(float64) != 0 {
		t.Fatalf("sent tras dedup = %v", stats["sent"])
	}
}

func TestWebhookRequiresTokenWithVerifier(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Verifier: webhook.NewVerifier("s3cret"),
	}))
	defer ts.Close()

	body := map[string]any{"phone": "+5511988887777", "message": "oi"}
	b, _ := json.Marshal(body)

	// sin token => 401
	resp, err := http.Post(ts.URL+"/webhook/messages", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status sin token = %d", resp.StatusCode)
	}

	// token equivocado => 401
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook/messages", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Token", "otro")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status con token equivocado = %d", resp.StatusCode)
	}

	// token correcto => 200
	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/webhook/messages", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Token", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status con token correcto = %d", resp.StatusCode)
	}
}

func TestJobsEndpoints(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	for _, path := range []string{"/jobs/reminders/run", "/jobs/followups/run", "/jobs/cleanup/run"} {
		resp, err := http.Post(ts.URL+path, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestAgendaValidation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/agenda")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status sin owner = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/agenda?owner=nadie")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out []any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("agenda de owner desconocido = %d items", len(out))
	}
}

func TestReceiptEndpoint(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{
		"message_id": "msg-123",
		"status":     "READ",
	})
	resp, err := http.Post(ts.URL+"/webhook/receipts", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func postMessage(t *testing.T, baseURL, token, text string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]any{
		"phone":       "+5511988887777",
		"sender_name": "Ana",
		"message":     text,
	})
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/webhook/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Webhook-Token", token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook status = %d body = %s", resp.StatusCode, raw)
	}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	return out.Reply
}

func postJob(t *testing.T, baseURL, path string) map[string]any {
	t.Helper()

	resp, err := http.Post(baseURL+path, "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s status = %d", path, resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}
