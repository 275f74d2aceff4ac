package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authsvc/pkg/pg"
	"github.com/dmitrymomot/authsvc/pkg/session"
)

// SessionStore implements session.Store on a pgx pool.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates the PostgreSQL session store.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const sessionColumns = `id, token, user_id, expires_at, created_at, ip_address, user_agent`

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return session.ErrInvalidSession
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, token, user_id, expires_at, created_at, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt, sess.IPAddress, sess.UserAgent)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token)
	return scanSession(row)
}

// DeleteByToken removes and returns the session in one statement, so a
// validate racing a revoke observes either the row or its absence, never a
// half-deleted state.
func (s *SessionStore) DeleteByToken(ctx context.Context, token string) (*session.Session, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM sessions WHERE token = $1 RETURNING `+sessionColumns, token)
	return scanSession(row)
}

func (s *SessionStore) DeleteByUserExcept(ctx context.Context, userID, keepID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND id <> $2`, userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]session.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Session
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.IPAddress, &sess.UserAgent); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *SessionStore) Stats(ctx context.Context, now time.Time) (session.Stats, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE expires_at > $1),
		        count(*) FILTER (WHERE expires_at <= $1)
		 FROM sessions`, now)

	var stats session.Stats
	if err := row.Scan(&stats.Total, &stats.Active, &stats.Expired); err != nil {
		return session.Stats{}, fmt.Errorf("session stats: %w", err)
	}
	return stats, nil
}

var _ session.Store = (*SessionStore)(nil)
