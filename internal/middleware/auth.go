package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"watch-me-run-api/internal/auth"
)

type ctxKey string

const UserIDKey ctxKey = "uid"

// UserID pulls the authenticated user id out of a request context. Empty
// string means the request never passed the auth middleware.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// Auth rejects requests without a valid bearer token and stashes the user id
// in the context for handlers downstream.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); h != "" {
				raw = strings.TrimPrefix(h, "Bearer ")
			}
			if raw == "" {
				// fall back to the access-token cookie set at login
				if c, err := r.Cookie("access_token"); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				unauthorized(w, "no token")
				return
			}

			claims, err := auth.VerifyAccessToken(raw, secret)
			if err != nil {
				unauthorized(w, "bad token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
