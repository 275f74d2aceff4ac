package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-memory map. It backs tests and
// local development; production uses the PostgreSQL store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Create(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *sess
	m.sessions[sess.Token] = &cp
	return nil
}

func (m *MemoryStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) DeleteByToken(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, token)
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) DeleteByUserExcept(ctx context.Context, userID, keepID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for token, sess := range m.sessions {
		if sess.UserID == userID && sess.ID != keepID {
			delete(m.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Session
	for _, sess := range m.sessions {
		if sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for token, sess := range m.sessions {
		if sess.ExpiredAt(now) {
			delete(m.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Total: int64(len(m.sessions))}
	for _, sess := range m.sessions {
		if sess.ExpiredAt(now) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}

var _ Store = (*MemoryStore)(nil)
