package identity

import (
	"time"

	"github.com/google/uuid"
)

// User represents a local user account resolved from a provider identity.
type User struct {
	ID            uuid.UUID
	Email         string
	Name          string
	ImageURL      string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Account links a User to one external provider identity. The pair
// (Provider, ProviderAccountID) identifies at most one account, and an
// account always references exactly one existing user.
type Account struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Provider          string
	ProviderAccountID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
