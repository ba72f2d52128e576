package transport

import "context"

// Sender es la capacidad "mandar texto a un teléfono".
type Sender interface {
	// Send retorna el identificador opaco de entrega del proveedor.
	Send(ctx context.Context, phone, text string) (messageID string, err error)
}
