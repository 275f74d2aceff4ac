package idtoken

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// idClaims captures the subset of OpenID Connect claims both providers emit.
type idClaims struct {
	jwt.RegisteredClaims
	Email         string  `json:"email"`
	EmailVerified boolish `json:"email_verified"`
	Name          string  `json:"name"`
	Picture       string  `json:"picture"`
}

// boolish tolerates providers encoding boolean claims as JSON strings.
// Apple is known to emit email_verified as "true" rather than true.
type boolish bool

func (b *boolish) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"true"`:
		*b = true
	case "false", `"false"`, "null":
		*b = false
	default:
		return fmt.Errorf("cannot unmarshal %s into bool", data)
	}
	return nil
}

// parseAndVerify validates signature and expiry through the jwt library,
// then checks issuer and audience explicitly so each failure maps to a
// distinct error kind. RS256 is the only accepted algorithm; both providers
// sign with it and accepting anything else invites downgrade tricks.
func parseAndVerify(ctx context.Context, raw string, keys *jwksClient, issuers, audiences []string) (*idClaims, error) {
	claims := &idClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing key id header", ErrInvalidToken)
		}
		return keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if !slices.Contains(issuers, claims.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}

	audienceOK := slices.ContainsFunc(claims.Audience, func(aud string) bool {
		return slices.Contains(audiences, aud)
	})
	if !audienceOK {
		return nil, ErrAudienceMismatch
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrMissingClaims)
	}

	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		// Keyfunc failures carry the original error through the jwt wrapper.
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
