package events

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lembra/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/agenda", agendaHandler(svc))
	r.Post("/jobs/cleanup/run", cleanupHandler(svc))
}

type eventResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Person      string    `json:"person,omitempty"`
	Address     string    `json:"address,omitempty"`
	At          time.Time `json:"at"`
	Status      string    `json:"status"`
	IsRecurring bool      `json:"is_recurring,omitempty"`
	Checklist   []string  `json:"checklist,omitempty"`
}

// @Summary Agenda de un usuario
// @Description Lista los eventos abiertos del usuario en los próximos días, en orden cronológico.
// @Tags agenda
// @Produce json
// @Param owner query string true "ID del usuario"
// @Param days query int false "Horizonte en días (default 7)"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "owner requerido"
// @Failure 401 {string} string "unauthorized"
// @Router /agenda [get]
func agendaHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		owner := strings.TrimSpace(r.URL.Query().Get("owner"))
		if owner == "" {
			http.Error(w, "owner required", http.StatusBadRequest)
			return
		}

		days := 7
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 365 {
				http.Error(w, "days must be 1-365", http.StatusBadRequest)
				return
			}
			days = n
		}

		agenda, err := svc.Agenda(r.Context(), owner, days)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out := make([]eventResponse, 0, len(agenda))
		for _, e := range agenda {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type cleanupResponse struct {
	Deleted int `json:"deleted"`
}

// @Summary Limpieza de lembretes vencidos
// @Description Borra lembretes transitorios cuya fecha pasó hace más de una semana, sin importar su status. Los demás tipos de evento nunca se borran.
// @Tags jobs
// @Produce json
// @Success 200 {object} cleanupResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /jobs/cleanup/run [post]
func cleanupHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		n, err := svc.CleanupExpiredReminders(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cleanupResponse{Deleted: n})
	}
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Title:       e.Title,
		Description: e.Description,
		Person:      e.Person,
		Address:     e.Address,
		At:          e.At,
		Status:      string(e.Status),
		IsRecurring: e.IsRecurring,
		Checklist:   e.Checklist,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
