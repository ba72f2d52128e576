package reminders

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lembra/internal/middleware"
	"lembra/internal/platform/braziltime"
)

func RegisterRoutes(r chi.Router, sched *Scheduler, repo Repository) {
	r.Post("/jobs/reminders/run", runHandler(sched))
	r.Post("/webhook/receipts", receiptHandler(repo))
}

type runResponse struct {
	Evaluated int `json:"evaluated"`
	Sent      int `json:"sent"`
	Deduped   int `json:"deduped"`
	Blocked   int `json:"blocked"`
	Failed    int `json:"failed"`
}

// @Summary Tick del scheduler de recordatorios
// @Description Evalúa todos los eventos abiertos del horizonte y despacha los recordatorios que tocan. Idempotente: correrlo dos veces no duplica envíos.
// @Tags jobs
// @Produce json
// @Success 200 {object} runResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /jobs/reminders/run [post]
func runHandler(sched *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		stats, err := sched.Run(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, runResponse{
			Evaluated: stats.Evaluated,
			Sent:      stats.Sent,
			Deduped:   stats.Deduped,
			Blocked:   stats.Blocked,
			Failed:    stats.Failed,
		})
	}
}

type receiptRequest struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"` // READ | DELIVERED | ...
	At        string `json:"at"`     // RFC3339, opcional
}

// @Summary Receipt de lectura del proveedor
// @Description Registra el read-receipt de un mensaje despachado. Alimenta el anti-spam: un envío leído deja de bloquear los siguientes.
// @Tags webhook
// @Accept json
// @Param X-Webhook-Token header string false "Secreto compartido del webhook"
// @Param payload body receiptRequest true "Receipt"
// @Success 204 {string} string ""
// @Failure 400 {string} string "invalid json / message_id requerido"
// @Failure 401 {string} string "unauthorized"
// @Router /webhook/receipts [post]
func receiptHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req receiptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.MessageID) == "" {
			http.Error(w, "message_id required", http.StatusBadRequest)
			return
		}

		// solo lectura importa; delivered y demás se ignoran
		if !strings.EqualFold(req.Status, "READ") {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		at := braziltime.Now()
		if strings.TrimSpace(req.At) != "" {
			parsed, err := time.Parse(time.RFC3339, req.At)
			if err != nil {
				http.Error(w, "at must be RFC3339", http.StatusBadRequest)
				return
			}
			at = parsed.In(braziltime.Zone)
		}

		if err := repo.MarkRead(r.Context(), req.MessageID, at); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
