package dialogue

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lembra/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/webhook/messages", inboundHandler(svc))
}

type inboundRequest struct {
	Phone           string `json:"phone"`
	SenderName      string `json:"sender_name"`
	Message         string `json:"message"`
	QuotedMessageID string `json:"quoted_message_id"`
	HasImage        bool   `json:"has_image"`
}

type inboundResponse struct {
	Reply string `json:"reply"`
}

// @Summary Mensaje entrante del usuario
// @Description Recibe un mensaje del proveedor de mensajería, lo procesa de punta a punta (estado conversacional, NLU, acción) y responde por el mismo canal. Autenticación: `X-Webhook-Token` con el secreto compartido.
// @Tags webhook
// @Accept json
// @Produce json
// @Param X-Webhook-Token header string false "Secreto compartido del webhook"
// @Param payload body inboundRequest true "Mensaje entrante"
// @Success 200 {object} inboundResponse
// @Failure 400 {string} string "invalid json / phone y message requeridos"
// @Failure 401 {string} string "unauthorized"
// @Router /webhook/messages [post]
func inboundHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req inboundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
			http.Error(w, "phone and message required", http.StatusBadRequest)
			return
		}

		reply, err := svc.HandleInbound(r.Context(), InboundMessage{
			Phone:           req.Phone,
			Name:            req.SenderName,
			Text:            req.Message,
			QuotedMessageID: req.QuotedMessageID,
			HasImage:        req.HasImage,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, inboundResponse{Reply: reply})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
