package identity

import "errors"

var (
	// ErrUserNotFound indicates no user matched the lookup.
	ErrUserNotFound = errors.New("identity: user not found")

	// ErrEmailTaken is reported by storage when an insert hits the unique
	// email constraint.
	ErrEmailTaken = errors.New("identity: email already registered")

	// ErrEmailConflict indicates a sign-in with an unverified email claim
	// matching an existing account. Merging is refused because the provider
	// has not asserted ownership of the address.
	ErrEmailConflict = errors.New("identity: email belongs to an existing account")

	// ErrInvalidProfile indicates a verified profile missing required fields.
	ErrInvalidProfile = errors.New("identity: invalid profile")
)
