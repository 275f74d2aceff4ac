package idtoken

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// jwksClient fetches and caches a provider's JSON Web Key Set. Keys are
// cached for a TTL; an unknown key id forces at most one refetch per lookup,
// which covers provider key rotation without hammering the endpoint.
type jwksClient struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newJWKSClient(url string, timeout, ttl time.Duration) *jwksClient {
	return &jwksClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        ttl,
	}
}

// Key returns the RSA public key for the given key id. A fetch failure is
// reported as ErrProviderUnavailable; a key id the provider does not know is
// ErrInvalidToken.
func (c *jwksClient) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.fetchedAt) < c.ttl {
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
	}

	if err := c.refreshLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: signed by unknown key %q", ErrInvalidToken, kid)
	}
	return key, nil
}

func (c *jwksClient) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: key endpoint returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		pub, err := k.publicKey()
		if err != nil {
			// Skip keys we cannot use (EC keys, malformed entries).
			continue
		}
		keys[k.Kid] = pub
	}

	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}

// jwk is a single RSA key entry of a JWKS document.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 {
		return nil, fmt.Errorf("invalid public exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
