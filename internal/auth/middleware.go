package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const (
	RoleContextKey  contextKey = "role"
	TokenContextKey contextKey = "token"
)

// SessionHeader carries the token issued by Login.
const SessionHeader = "x-session"

// TokenFromRequest reads the session token from the x-session header, or
// from an Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(SessionHeader)); t != "" {
		return t
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// RoleFromContext returns the role attached by Middleware.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleContextKey).(string)
	return role, ok && role != ""
}

// Middleware attaches the session role to the request context. Requests
// without a token pass through unauthenticated; RequirePermission rejects
// them where a role is needed.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" && !s.opts.Disabled {
			next.ServeHTTP(w, r)
			return
		}

		role, ok, err := s.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "session lookup failed")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), TokenContextKey, token)
		ctx = context.WithValue(ctx, RoleContextKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) RequirePermission(obj, act string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := RoleFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		allowed, err := s.Enforce(role, obj, act)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !allowed {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeError matches the {"error": "..."} bodies the API handlers return.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
