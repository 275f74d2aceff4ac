package idtoken

import "errors"

var (
	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("idtoken: invalid identity token")

	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("idtoken: identity token expired")

	// ErrAudienceMismatch indicates the token was issued for a different
	// client application.
	ErrAudienceMismatch = errors.New("idtoken: token audience mismatch")

	// ErrProviderUnavailable indicates the provider's key endpoint could not
	// be reached in time. Verification fails closed.
	ErrProviderUnavailable = errors.New("idtoken: identity provider unavailable")

	// ErrMissingClaims indicates the token lacks claims required to build a
	// profile.
	ErrMissingClaims = errors.New("idtoken: required claims missing")

	// ErrUnknownProvider indicates a provider name with no registered verifier.
	ErrUnknownProvider = errors.New("idtoken: unknown identity provider")
)
