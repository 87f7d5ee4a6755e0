package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookease/marketplace/internal/auth"
	"github.com/bookease/marketplace/internal/domain/user"
)

type claimsKey struct{}

// claimsFrom extracts the authenticated claims stored by authenticated.
func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// authenticated verifies the bearer token and stores its claims in the
// request context before invoking next.
func (h *Handler) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next(w, r.WithContext(ctx))
	})
}

// requireRole is authenticated plus a role gate.
func (h *Handler) requireRole(next http.HandlerFunc, roles ...user.Role) http.Handler {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		for _, role := range roles {
			if claims.Role == role {
				next(w, r)
				return
			}
		}
		respondError(w, http.StatusForbidden, "insufficient permissions")
	})
}
