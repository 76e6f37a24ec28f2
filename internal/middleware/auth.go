package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/rex/internal/auth"
	"github.com/dukerupert/rex/internal/token"
)

// Machine-readable 401 codes. Clients clear their stored token and
// re-authenticate on TOKEN_EXPIRED; anything else is a hard failure.
const (
	CodeTokenMissing = "TOKEN_MISSING"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// RequireAuth validates the bearer token and populates AuthContext.
func RequireAuth(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeAuthError(w, "authentication required", CodeTokenMissing)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					writeAuthError(w, "token expired", CodeTokenExpired)
					return
				}
				writeAuthError(w, "invalid token", CodeTokenInvalid)
				return
			}

			ac := auth.AuthContext{
				UserID: claims.UserID,
				Email:  claims.Email,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates AuthContext when a valid bearer token is present
// but never rejects the request. Public reads use it so the "available to
// others" filter can see who is asking.
func OptionalAuth(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if claims, err := tokens.Verify(raw); err == nil {
					ctx := auth.WithAuth(r.Context(), auth.AuthContext{
						UserID: claims.UserID,
						Email:  claims.Email,
					})
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
