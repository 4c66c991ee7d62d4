// Package session persists the per-browser key/value state (token,
// refreshToken, userId, role, user) that the storefront keeps for a
// signed-in visitor.
package session

import (
	"context"
	"errors"
	"time"

	"booknest/internal/model"
)

// Store keeps one set of values per session id. Save replaces the whole set
// and Delete removes it, so the keys are always written and cleared together.
type Store interface {
	Load(ctx context.Context, sessionID string) (map[string]string, error)
	Save(ctx context.Context, sessionID string, values map[string]string, expiresAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scope binds a Store to one session id.
type Scope struct {
	store Store
	id    string
	ttl   time.Duration
}

func NewScope(store Store, sessionID string, ttl time.Duration) *Scope {
	return &Scope{store: store, id: sessionID, ttl: ttl}
}

func (s *Scope) ID() string {
	return s.id
}

// Load returns the decoded session. A missing session is the zero Session
// with RoleUnknown, not an error.
func (s *Scope) Load(ctx context.Context) (model.Session, error) {
	values, err := s.store.Load(ctx, s.id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return model.Session{Role: model.RoleUnknown}, nil
		}
		return model.Session{}, err
	}
	return model.SessionFromValues(values), nil
}

func (s *Scope) Save(ctx context.Context, sess model.Session) error {
	return s.store.Save(ctx, s.id, sess.Values(), time.Now().UTC().Add(s.ttl))
}

func (s *Scope) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.id)
}
