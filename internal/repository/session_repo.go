package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"booknest/internal/model"
)

// SessionRepository is the Postgres-backed session.Store. Each session is
// one row; the five keys live together in a JSONB object so save and clear
// are single statements.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM storefront_sessions
		 WHERE id = $1 AND expires_at > now()`, sessionID).Scan(&raw)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return values, nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, values map[string]string, expiresAt time.Time) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO storefront_sessions (id, data, created_at, updated_at, expires_at)
		 VALUES ($1, $2, $3, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
		sessionID, data, now, expiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM storefront_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM storefront_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
