package session

import "errors"

var (
	// ErrSessionNotFound indicates no session exists for the token. A
	// deleted token is indistinguishable from one that never existed.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session exists but is past its expiry.
	// Callers facing external clients must collapse this with
	// ErrSessionNotFound into a single unauthorized outcome.
	ErrSessionExpired = errors.New("session.expired")

	// ErrTokenGeneration indicates token generation failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrInvalidSession indicates a malformed session passed to a store.
	ErrInvalidSession = errors.New("session.invalid")
)
