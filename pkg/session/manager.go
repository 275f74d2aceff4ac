package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Manager issues, validates and revokes sessions against a Store. Sessions
// are multi-device: issuing a new session leaves a user's prior sessions
// intact, and "log out other devices" is an explicit operation.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// ManagerOption configures a Manager during construction.
type ManagerOption func(*Manager)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a session manager with a 7-day default TTL.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		ttl:   DefaultConfig().TTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue creates and persists a new session for the user.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, meta Meta) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}

// Validate returns the session for the token if it is still active.
// It fails with ErrSessionNotFound or ErrSessionExpired; external callers
// must present both identically so token existence cannot be probed.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.ExpiredAt(m.now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Revoke deletes the session for the token and returns it. Revoking an
// unknown or already-deleted token fails with ErrSessionNotFound so the
// caller knows no server-side state changed.
func (m *Manager) Revoke(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	return m.store.DeleteByToken(ctx, token)
}

// RevokeOthers deletes every session of the user except keepID, returning
// the number revoked. Used for "log out other devices".
func (m *Manager) RevokeOthers(ctx context.Context, userID, keepID uuid.UUID) (int64, error) {
	return m.store.DeleteByUserExcept(ctx, userID, keepID)
}

// List returns the user's sessions, newest first, with token values blanked:
// session metadata is safe to show, live credentials are not.
func (m *Manager) List(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Token = ""
	}
	return sessions, nil
}

// Stats reports current session counts.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Stats(ctx, m.now())
}
