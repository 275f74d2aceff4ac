package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/session"
)

// userView is the external representation of a user.
type userView struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newUserView(u *identity.User) userView {
	return userView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		ImageURL:      u.ImageURL,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// sessionView exposes session metadata. Token values never leave the server
// after issuance.
type sessionView struct {
	ID        uuid.UUID `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Current   bool      `json:"current"`
}

func newSessionView(s session.Session, currentID uuid.UUID) sessionView {
	return sessionView{
		ID:        s.ID,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		Current:   s.ID == currentID,
	}
}
