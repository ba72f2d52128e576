package auth

import "context"

// Claims representa la identidad extraída de un token de webhook.
type Claims struct {
	Source string
}

// Verifier valida el secreto compartido del webhook y devuelve claims o error.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
