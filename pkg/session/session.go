package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is an issued bearer credential. A session is active while
// now < ExpiresAt; the boundary instant itself counts as expired.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Meta carries optional client metadata recorded at issue time.
type Meta struct {
	IPAddress string
	UserAgent string
}

// ExpiredAt reports whether the session is expired at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
