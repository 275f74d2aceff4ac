package idtoken

import (
	"context"
	"strings"
	"time"
)

// AppleConfig holds verification settings for Sign in with Apple ID tokens.
// ClientIDs lists the app bundle ids (and services id for web) tokens may be
// minted for.
type AppleConfig struct {
	ClientIDs      []string      `env:"APPLE_CLIENT_IDS,required" envSeparator:","`
	JWKSURL        string        `env:"APPLE_JWKS_URL" envDefault:"https://appleid.apple.com/auth/keys"`
	RequestTimeout time.Duration `env:"APPLE_JWKS_TIMEOUT" envDefault:"10s"`
	KeyCacheTTL    time.Duration `env:"APPLE_JWKS_CACHE_TTL" envDefault:"1h"`
}

const applePrivateRelayDomain = "privaterelay.appleid.com"

var appleIssuers = []string{"https://appleid.apple.com"}

type appleVerifier struct {
	clientIDs []string
	keys      *jwksClient
}

// NewAppleVerifier creates a verifier for Apple identity tokens.
func NewAppleVerifier(cfg AppleConfig) Verifier {
	return &appleVerifier{
		clientIDs: cfg.ClientIDs,
		keys:      newJWKSClient(cfg.JWKSURL, cfg.RequestTimeout, cfg.KeyCacheTTL),
	}
}

func (v *appleVerifier) Provider() string { return ProviderApple }

// Verify validates the token and fills the gaps Apple leaves: name and email
// only appear in the very first authorization, so the client may forward them
// as a hint. When no email is available from any source, a deterministic
// placeholder keyed by the subject id is synthesized; a user row is never
// created with an empty email.
func (v *appleVerifier) Verify(ctx context.Context, rawToken string, hint *UserHint) (Profile, error) {
	claims, err := parseAndVerify(ctx, rawToken, v.keys, appleIssuers, v.clientIDs)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		Provider:       ProviderApple,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  bool(claims.EmailVerified),
		Name:           claims.Name,
	}

	if hint != nil {
		if profile.Name == "" {
			profile.Name = strings.TrimSpace(hint.FirstName + " " + hint.LastName)
		}
		if profile.Email == "" && hint.Email != "" {
			// Client-supplied, so ownership is not asserted by the provider.
			profile.Email = hint.Email
			profile.EmailVerified = false
		}
	}

	if profile.Email == "" {
		profile.Email = claims.Subject + "@" + applePrivateRelayDomain
		profile.EmailVerified = false
	}

	return profile, nil
}

var _ Verifier = (*appleVerifier)(nil)
