package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/techexlab/pois/internal/auth"
)

type ctxKey int

const (
	ctxKeyRole ctxKey = iota
	ctxKeyUserID
	ctxKeyUsername
)

// RequireAuth accepts either the static admin bootstrap token
// (Authorization: Bearer <POIS_ADMIN_TOKEN>) or a valid JWT, and stores the
// resolved role/subject on the request context.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if s.adminToken != "" && tokenStr == s.adminToken {
			ctx := context.WithValue(r.Context(), ctxKeyRole, auth.RoleAdmin)
			ctx = context.WithValue(ctx, ctxKeyUsername, "admin-token")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		claims, err := s.auth.ValidateToken(r.Context(), tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyRole, claims.Role)
		ctx = context.WithValue(ctx, ctxKeyUsername, claims.Username)
		ctx = context.WithValue(ctx, ctxKeyUserID, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects any caller whose resolved role is not admin. Must
// run after RequireAuth.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(ctxKeyRole).(string)
		if role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

func roleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ctxKeyRole).(string)
	return role
}
