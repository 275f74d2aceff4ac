package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for session persistence. Implementations must
// make every mutation a single atomic operation; the manager and reaper hold
// no cross-request state of their own.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// GetByToken retrieves a session by token, expired or not, or
	// ErrSessionNotFound.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// DeleteByToken removes a session and returns the removed row, or
	// ErrSessionNotFound.
	DeleteByToken(ctx context.Context, token string) (*Session, error)

	// DeleteByUserExcept removes every session of a user except keepID,
	// returning the number removed.
	DeleteByUserExcept(ctx context.Context, userID, keepID uuid.UUID) (int64, error)

	// ListByUser returns all sessions of a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)

	// DeleteExpired removes every session with ExpiresAt <= now and returns
	// the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Stats reports session counts relative to now.
	Stats(ctx context.Context, now time.Time) (Stats, error)
}

// Stats summarizes the session table at a point in time.
type Stats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
}
