package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// generateToken creates an opaque 256-bit session token. Tokens carry no
// structure: all state lives server-side.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
