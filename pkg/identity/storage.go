package identity

import (
	"context"

	"github.com/google/uuid"
)

// Storage defines the persistence operations the resolver needs. Every
// mutation must be a single atomic statement: the resolver is called from
// concurrent requests and relies on the store, not on locks of its own.
type Storage interface {
	// GetUserByID returns the user or ErrUserNotFound.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByAccount returns the user owning the (provider,
	// providerAccountID) link, or ErrUserNotFound.
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error)

	// CreateUser inserts a new user. A racing insert on the same email
	// returns ErrEmailTaken.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// UpsertUserByEmail atomically inserts the user or, when the email
	// already exists, refreshes name and image on the existing row (email
	// and email_verified stay untouched). Reports whether a new row was
	// inserted.
	UpsertUserByEmail(ctx context.Context, user *User) (*User, bool, error)

	// UpdateUserProfile refreshes the mutable display fields of a user.
	UpdateUserProfile(ctx context.Context, id uuid.UUID, name, imageURL string) (*User, error)

	// LinkAccount inserts the provider link if it does not exist yet.
	// Inserting an already-present (provider, providerAccountID) pair is a
	// no-op, not an error.
	LinkAccount(ctx context.Context, account *Account) error
}
