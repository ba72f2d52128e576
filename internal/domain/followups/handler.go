package followups

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lembra/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/jobs/followups/run", runHandler(svc))
}

type runResponse struct {
	Created   int `json:"created"`
	Sent      int `json:"sent"`
	Completed int `json:"completed"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
}

// @Summary Tick de follow-ups
// @Description Abre tickets para eventos vencidos sin respuesta y procesa los que tienen reintento pendiente, escalando el espaciado.
// @Tags jobs
// @Produce json
// @Success 200 {object} runResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /jobs/followups/run [post]
func runHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		stats, err := svc.Run(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, runResponse{
			Created:   stats.Created,
			Sent:      stats.Sent,
			Completed: stats.Completed,
			Expired:   stats.Expired,
			Failed:    stats.Failed,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
