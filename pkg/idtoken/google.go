package idtoken

import (
	"context"
	"fmt"
	"time"
)

// GoogleConfig holds verification settings for Google-issued ID tokens.
// ClientIDs lists every OAuth client id a token may be minted for (iOS,
// Android and web clients each get their own).
type GoogleConfig struct {
	ClientIDs      []string      `env:"GOOGLE_CLIENT_IDS,required" envSeparator:","`
	JWKSURL        string        `env:"GOOGLE_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
	RequestTimeout time.Duration `env:"GOOGLE_JWKS_TIMEOUT" envDefault:"10s"`
	KeyCacheTTL    time.Duration `env:"GOOGLE_JWKS_CACHE_TTL" envDefault:"1h"`
}

// Google's token issuer appears in both forms in the wild.
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

type googleVerifier struct {
	clientIDs []string
	keys      *jwksClient
}

// NewGoogleVerifier creates a verifier for Google identity tokens.
func NewGoogleVerifier(cfg GoogleConfig) Verifier {
	return &googleVerifier{
		clientIDs: cfg.ClientIDs,
		keys:      newJWKSClient(cfg.JWKSURL, cfg.RequestTimeout, cfg.KeyCacheTTL),
	}
}

func (v *googleVerifier) Provider() string { return ProviderGoogle }

func (v *googleVerifier) Verify(ctx context.Context, rawToken string, _ *UserHint) (Profile, error) {
	claims, err := parseAndVerify(ctx, rawToken, v.keys, googleIssuers, v.clientIDs)
	if err != nil {
		return Profile{}, err
	}

	// Google always includes the account email in ID tokens issued with the
	// default sign-in scopes; its absence means the token is not usable here.
	if claims.Email == "" {
		return Profile{}, fmt.Errorf("%w: no email", ErrMissingClaims)
	}

	return Profile{
		Provider:       ProviderGoogle,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  true,
		Name:           claims.Name,
		Picture:        claims.Picture,
	}, nil
}

var _ Verifier = (*googleVerifier)(nil)
