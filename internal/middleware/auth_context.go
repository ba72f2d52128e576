package middleware

import (
	"context"
	"net/http"
	"strings"

	"lembra/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Si verifier != nil => exige el token del webhook (header X-Webhook-Token
//   o Bearer) y setea claims si verifica.
// - Si verifier == nil => modo dev: setea claims directo.
// - Si no hay claims, el request sigue igual; los handlers deciden si cortan.
func AuthContext(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				ctx := context.WithValue(r.Context(), claimsKey, auth.Claims{Source: "dev"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := webhookToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// no cortamos acá; el handler decide 401
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func webhookToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("X-Webhook-Token")); t != "" {
		return t
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
