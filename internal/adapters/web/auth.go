package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"sales-ledger/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

type actorKey struct{}

// actorFromContext returns the acting operator name stored in ctx.
func actorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(actorKey{}).(string)
	if v == "" {
		return core.DefaultOperator
	}
	return v
}

// jwtClaims is the JWT payload issued by the external auth gate. Only the
// actor name matters here; this service never issues tokens itself.
type jwtClaims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// RequireActor validates the Bearer token issued by the external auth gate
// and injects the actor name into the request context. With no jwtSecret
// configured the gate is open and every request acts as the default operator.
func (h *Handler) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.jwtSecret == "" {
			ctx := context.WithValue(r.Context(), actorKey{}, h.defaultOperator)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		if strings.TrimSpace(claims.Actor) == "" {
			writeError(w, r, "token carries no actor identity", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, claims.Actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
