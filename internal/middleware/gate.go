package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"booknest/internal/model"
)

// SessionLoader reads the persisted session for an id.
type SessionLoader func(ctx context.Context, sessionID string) (model.Session, error)

// Gate is the session gate in front of protected views. It is evaluated per
// request only; a role change mid-request is not observed.
type Gate struct {
	load SessionLoader
}

func NewGate(load SessionLoader) *Gate {
	return &Gate{load: load}
}

// RequireAuth rejects anonymous sessions with 401 and a /login redirect.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return g.RequireRoles()(next)
}

// RequireRoles admits sessions holding one of roles. With no roles any
// signed-in session passes.
func (g *Gate) RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := g.load(r.Context(), SessionIDFromContext(r.Context()))
			if err != nil {
				slog.Error("failed to load session", "session_id", SessionIDFromContext(r.Context()), "error", err)
				writeFailure(w, http.StatusInternalServerError, &model.APIError{
					Code:    "SESSION_UNAVAILABLE",
					Message: "An unexpected error occurred.",
				})
				return
			}

			if !sess.Authenticated() {
				writeFailure(w, http.StatusUnauthorized, &model.APIError{
					Code:     "UNAUTHORIZED",
					Message:  "You must be logged in to access this feature.",
					Redirect: "/login",
				})
				return
			}

			if len(roles) > 0 && !sess.HasRole(roles...) {
				writeFailure(w, http.StatusForbidden, &model.APIError{
					Code:     "FORBIDDEN",
					Message:  fmt.Sprintf("This feature requires %s role. Your current role is %s.", roles[0], sess.Role),
					Redirect: "/unauthorized",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
