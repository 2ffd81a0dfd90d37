package api

import (
	"context"
	"net/http"
	"strings"

	"echocheck/internal/services"
	"echocheck/internal/users"
)

type contextKey string

const claimsContextKey contextKey = "api.claims"

// requireAuth rejects requests without a valid bearer token and stores the
// verified claims on the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		ctx = services.WithUserID(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestClaims returns the verified claims stored by requireAuth.
func requestClaims(r *http.Request) *users.Claims {
	claims, _ := r.Context().Value(claimsContextKey).(*users.Claims)
	return claims
}
