package console

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lembra/internal/platform/logger"
)

// Sender escribe los mensajes al log en vez de mandarlos. Es el transporte
// de desarrollo cuando no hay instancia de WhatsApp configurada.
type Sender struct {
	log logger.Logger
}

func NewSender(log logger.Logger) *Sender {
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, phone, text string) (string, error) {
	id := fmt.Sprintf("console-%s", uuid.NewString())
	s.log.Info("outbound message", map[string]any{
		"phone":      phone,
		"text":       text,
		"message_id": id,
	})
	return id, nil
}
