package idtoken_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authsvc/pkg/idtoken"
)

const testClientID = "com.example.app"

// signingKey bundles an RSA key pair with its JWKS representation.
type signingKey struct {
	kid string
	key *rsa.PrivateKey
}

func newSigningKey(t *testing.T, kid string) *signingKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &signingKey{kid: kid, key: key}
}

func (k *signingKey) jwk() map[string]string {
	pub := k.key.Public().(*rsa.PublicKey)
	return map[string]string{
		"kty": "RSA",
		"kid": k.kid,
		"use": "sig",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func (k *signingKey) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = k.kid
	raw, err := token.SignedString(k.key)
	require.NoError(t, err)
	return raw
}

// newJWKSServer serves the given keys as a JWKS document.
func newJWKSServer(t *testing.T, keys ...*signingKey) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := make([]any, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, k.jwk())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": entries})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func googleClaims(overrides jwt.MapClaims) jwt.MapClaims {
	claims := jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   testClientID,
		"sub":   "google-user-1",
		"email": "user@example.com",
		"name":  "Test User",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	for k, v := range overrides {
		claims[k] = v
	}
	return claims
}

func newGoogleVerifier(srv *httptest.Server) idtoken.Verifier {
	return idtoken.NewGoogleVerifier(idtoken.GoogleConfig{
		ClientIDs:      []string{testClientID},
		JWKSURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		KeyCacheTTL:    time.Hour,
	})
}

func TestGoogleVerify(t *testing.T) {
	t.Parallel()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		profile, err := v.Verify(context.Background(), key.sign(t, googleClaims(nil)), nil)
		require.NoError(t, err)

		assert.Equal(t, idtoken.ProviderGoogle, profile.Provider)
		assert.Equal(t, "google-user-1", profile.ProviderUserID)
		assert.Equal(t, "user@example.com", profile.Email)
		assert.True(t, profile.EmailVerified)
		assert.Equal(t, "Test User", profile.Name)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		raw := key.sign(t, googleClaims(jwt.MapClaims{
			"exp": time.Now().Add(-time.Minute).Unix(),
		}))
		_, err := v.Verify(context.Background(), raw, nil)
		assert.ErrorIs(t, err, idtoken.ErrExpiredToken)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		raw := key.sign(t, googleClaims(jwt.MapClaims{"aud": "some-other-app"}))
		_, err := v.Verify(context.Background(), raw, nil)
		assert.ErrorIs(t, err, idtoken.ErrAudienceMismatch)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		raw := key.sign(t, googleClaims(jwt.MapClaims{"iss": "https://evil.example.com"}))
		_, err := v.Verify(context.Background(), raw, nil)
		assert.ErrorIs(t, err, idtoken.ErrInvalidToken)
	})

	t.Run("token signed by unknown key", func(t *testing.T) {
		t.Parallel()

		served := newSigningKey(t, "kid-1")
		rogue := newSigningKey(t, "kid-rogue")
		v := newGoogleVerifier(newJWKSServer(t, served))

		_, err := v.Verify(context.Background(), rogue.sign(t, googleClaims(nil)), nil)
		assert.ErrorIs(t, err, idtoken.ErrInvalidToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		other := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		// Same kid, different key: signature cannot verify.
		_, err := v.Verify(context.Background(), other.sign(t, googleClaims(nil)), nil)
		assert.ErrorIs(t, err, idtoken.ErrInvalidToken)
	})

	t.Run("unreachable key endpoint fails closed", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		srv := newJWKSServer(t, key)
		srv.Close()
		v := newGoogleVerifier(srv)

		_, err := v.Verify(context.Background(), key.sign(t, googleClaims(nil)), nil)
		assert.ErrorIs(t, err, idtoken.ErrProviderUnavailable)
	})

	t.Run("missing email", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		claims := googleClaims(nil)
		delete(claims, "email")
		_, err := v.Verify(context.Background(), key.sign(t, claims), nil)
		assert.ErrorIs(t, err, idtoken.ErrMissingClaims)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "kid-1")
		v := newGoogleVerifier(newJWKSServer(t, key))

		token := jwt.NewWithClaims(jwt.SigningMethodNone, googleClaims(nil))
		token.Header["kid"] = "kid-1"
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), raw, nil)
		assert.ErrorIs(t, err, idtoken.ErrInvalidToken)
	})
}

func appleClaims(overrides jwt.MapClaims) jwt.MapClaims {
	claims := jwt.MapClaims{
		"iss": "https://appleid.apple.com",
		"aud": testClientID,
		"sub": "apple-user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	for k, v := range overrides {
		claims[k] = v
	}
	return claims
}

func newAppleVerifier(srv *httptest.Server) idtoken.Verifier {
	return idtoken.NewAppleVerifier(idtoken.AppleConfig{
		ClientIDs:      []string{testClientID},
		JWKSURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		KeyCacheTTL:    time.Hour,
	})
}

func TestAppleVerify(t *testing.T) {
	t.Parallel()

	t.Run("token with email claim", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "apple-kid")
		v := newAppleVerifier(newJWKSServer(t, key))

		raw := key.sign(t, appleClaims(jwt.MapClaims{
			"email":          "user@icloud.com",
			"email_verified": "true",
		}))
		profile, err := v.Verify(context.Background(), raw, nil)
		require.NoError(t, err)

		assert.Equal(t, idtoken.ProviderApple, profile.Provider)
		assert.Equal(t, "apple-user-1", profile.ProviderUserID)
		assert.Equal(t, "user@icloud.com", profile.Email)
		assert.True(t, profile.EmailVerified, "string-encoded email_verified must parse")
	})

	t.Run("boolean email_verified also accepted", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "apple-kid")
		v := newAppleVerifier(newJWKSServer(t, key))

		raw := key.sign(t, appleClaims(jwt.MapClaims{
			"email":          "user@icloud.com",
			"email_verified": true,
		}))
		profile, err := v.Verify(context.Background(), raw, nil)
		require.NoError(t, err)
		assert.True(t, profile.EmailVerified)
	})

	t.Run("first sign-in hint fills name and email", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "apple-kid")
		v := newAppleVerifier(newJWKSServer(t, key))

		profile, err := v.Verify(context.Background(), key.sign(t, appleClaims(nil)), &idtoken.UserHint{
			Email:     "hinted@example.com",
			FirstName: "Jane",
			LastName:  "Roe",
		})
		require.NoError(t, err)

		assert.Equal(t, "Jane Roe", profile.Name)
		assert.Equal(t, "hinted@example.com", profile.Email)
		assert.False(t, profile.EmailVerified, "client-supplied email is never verified")
	})

	t.Run("no email anywhere synthesizes placeholder", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "apple-kid")
		v := newAppleVerifier(newJWKSServer(t, key))

		profile, err := v.Verify(context.Background(), key.sign(t, appleClaims(nil)), nil)
		require.NoError(t, err)

		assert.Equal(t, "apple-user-1@privaterelay.appleid.com", profile.Email)
		assert.False(t, profile.EmailVerified)
	})

	t.Run("token email wins over hint", func(t *testing.T) {
		t.Parallel()

		key := newSigningKey(t, "apple-kid")
		v := newAppleVerifier(newJWKSServer(t, key))

		raw := key.sign(t, appleClaims(jwt.MapClaims{
			"email":          "real@icloud.com",
			"email_verified": "true",
		}))
		profile, err := v.Verify(context.Background(), raw, &idtoken.UserHint{Email: "hinted@example.com"})
		require.NoError(t, err)

		assert.Equal(t, "real@icloud.com", profile.Email)
		assert.True(t, profile.EmailVerified)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t, "kid-1")
	srv := newJWKSServer(t, key)

	reg := idtoken.NewRegistry(newGoogleVerifier(srv), newAppleVerifier(srv))

	v, err := reg.Verifier(idtoken.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, idtoken.ProviderGoogle, v.Provider())

	_, err = reg.Verifier("facebook")
	assert.ErrorIs(t, err, idtoken.ErrUnknownProvider)

	assert.ElementsMatch(t, []string{"google", "apple"}, reg.Providers())
}

func TestJWKSKeyRotation(t *testing.T) {
	t.Parallel()

	oldKey := newSigningKey(t, "old-kid")
	newKey := newSigningKey(t, "new-kid")

	var mu sync.Mutex
	served := []*signingKey{oldKey}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		entries := make([]any, 0, len(served))
		for _, k := range served {
			entries = append(entries, k.jwk())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": entries})
	}))
	t.Cleanup(srv.Close)

	v := idtoken.NewGoogleVerifier(idtoken.GoogleConfig{
		ClientIDs:      []string{testClientID},
		JWKSURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		KeyCacheTTL:    time.Hour,
	})

	// Warm the cache with the old key.
	_, err := v.Verify(context.Background(), oldKey.sign(t, googleClaims(nil)), nil)
	require.NoError(t, err)

	// The provider rotates; a token under the new kid forces a refetch even
	// though the cache is fresh.
	mu.Lock()
	served = []*signingKey{oldKey, newKey}
	mu.Unlock()
	_, err = v.Verify(context.Background(), newKey.sign(t, googleClaims(nil)), nil)
	require.NoError(t, err)
}
