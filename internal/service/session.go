package service

import (
	"context"
	"log/slog"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
)

// SessionScope is the part of session.Scope the services rely on.
type SessionScope interface {
	ID() string
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, sess model.Session) error
	Clear(ctx context.Context) error
}

// expireOnUnauthorized clears every persisted key when err is a 401 from the
// backend. The next view activation then lands on the login page.
func expireOnUnauthorized(ctx context.Context, scope SessionScope, bus event.Bus, err error) {
	if !backend.IsUnauthorized(err) {
		return
	}

	if clearErr := scope.Clear(ctx); clearErr != nil {
		slog.Error("failed to clear expired session", "session_id", scope.ID(), "error", clearErr)
	}
	bus.Publish(event.New(scope.ID(), event.TypeSessionExpired, map[string]string{"redirect": "/login"}))
	slog.Info("session expired by backend", "session_id", scope.ID())
}

func requireAuthenticated(sess model.Session, message string) error {
	if sess.Authenticated() {
		return nil
	}
	return newFailure(KindAuthRequired, message, model.ErrAuthRequired)
}
