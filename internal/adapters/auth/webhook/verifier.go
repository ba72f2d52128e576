package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"lembra/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("webhook secret not configured")
	ErrUnauthorized  = errors.New("webhook unauthorized")
)

// Verifier compara el token del request contra el secreto compartido con el
// proveedor de mensajería.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret)}
}

func (v *Verifier) IsConfigured() bool {
	return v != nil && v.secret != ""
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if !v.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.secret)) != 1 {
		return auth.Claims{}, ErrUnauthorized
	}
	return auth.Claims{Source: "webhook"}, nil
}
