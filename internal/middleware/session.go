package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"booknest/internal/session"
)

type contextKey string

const sessionIDContextKey contextKey = "session_id"

type cookieCodec interface {
	Issue(sessionID string) (string, error)
	Parse(value string) (string, error)
	TTL() time.Duration
}

// Sessions guarantees every request carries a session id. A missing or
// tampered cookie is replaced by a fresh anonymous session.
type Sessions struct {
	codec  cookieCodec
	name   string
	secure bool
}

func NewSessions(codec cookieCodec, cookieName string, secure bool) *Sessions {
	return &Sessions{codec: codec, name: cookieName, secure: secure}
}

func (s *Sessions) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(s.name); err == nil {
			if id, err := s.codec.Parse(cookie.Value); err == nil {
				sessionID = id
			} else {
				slog.Debug("discarding invalid session cookie", "error", err)
			}
		}

		if sessionID == "" {
			sessionID = session.NewSessionID()
			value, err := s.codec.Issue(sessionID)
			if err != nil {
				slog.Error("failed to issue session cookie", "error", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     s.name,
				Value:    value,
				Path:     "/",
				MaxAge:   int(s.codec.TTL().Seconds()),
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}
