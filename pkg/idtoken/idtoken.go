package idtoken

import "context"

// Identity provider identifiers. Providers form a closed set: adding one
// means implementing Verifier and registering it, not matching strings at
// call sites.
const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

// Profile is the normalized, provider-agnostic identity produced by a
// successful token verification. It lives for a single request and is never
// persisted.
type Profile struct {
	// Provider is the identifier of the provider that asserted this identity.
	Provider string

	// ProviderUserID is the provider's stable subject identifier ("sub").
	ProviderUserID string

	// Email is never empty: providers that omit it get a deterministic
	// placeholder synthesized from the subject identifier.
	Email string

	// EmailVerified reports whether the provider (not the client) asserts
	// ownership of Email. Synthesized and client-supplied addresses are
	// always unverified.
	EmailVerified bool

	// Name is the display name, possibly empty.
	Name string

	// Picture is the profile image URL, possibly empty.
	Picture string
}

// UserHint carries the optional first-sign-in payload a mobile client may
// attach alongside the identity token. Apple only includes name/email in the
// very first authorization response, so the client forwards them out of band.
type UserHint struct {
	Email     string
	FirstName string
	LastName  string
}

// Verifier validates a provider-issued identity token and normalizes its
// claims.
type Verifier interface {
	// Provider returns the stable provider identifier, e.g. "google".
	Provider() string

	// Verify checks the token's signature, issuer, audience and expiry
	// against the provider's public key infrastructure. Any failure,
	// including the provider being unreachable, fails closed.
	Verify(ctx context.Context, rawToken string, hint *UserHint) (Profile, error)
}

// Registry resolves provider names to verifiers at the request boundary.
type Registry struct {
	verifiers map[string]Verifier
}

// NewRegistry builds a registry from the given verifiers.
func NewRegistry(verifiers ...Verifier) *Registry {
	m := make(map[string]Verifier, len(verifiers))
	for _, v := range verifiers {
		m[v.Provider()] = v
	}
	return &Registry{verifiers: m}
}

// Verifier returns the verifier registered for the provider name, or
// ErrUnknownProvider.
func (r *Registry) Verifier(provider string) (Verifier, error) {
	v, ok := r.verifiers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return v, nil
}

// Providers lists the registered provider identifiers.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.verifiers))
	for name := range r.verifiers {
		names = append(names, name)
	}
	return names
}
