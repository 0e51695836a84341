package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// MinRefreshTokenBytes is the smallest accepted amount of randomness (512 bits).
const MinRefreshTokenBytes = 64

// TokenHasher computes the digest under which refresh tokens are stored.
// With a key it is HMAC‑SHA256, otherwise plain SHA‑256.  The digest must be
// deterministic so rows can be looked up by the presented value.
type TokenHasher struct {
	key []byte
}

// NewTokenHasher returns a hasher keyed with key (may be empty).
func NewTokenHasher(key string) TokenHasher {
	if key == "" {
		return TokenHasher{}
	}
	return TokenHasher{key: []byte(key)}
}

// Hash returns the hex digest of raw.
func (h TokenHasher) Hash(raw string) string {
	if len(h.key) == 0 {
		sum := sha256.Sum256([]byte(raw))
		return hex.EncodeToString(sum[:])
	}
	m := hmac.New(sha256.New, h.key)
	_, _ = m.Write([]byte(raw))
	return hex.EncodeToString(m.Sum(nil))
}

// NewRefreshSecret returns n bytes of cryptographically secure randomness
// encoded as URL-safe base64 without padding.  n is raised to
// MinRefreshTokenBytes when smaller.
func NewRefreshSecret(n int) (string, error) {
	if n < MinRefreshTokenBytes {
		n = MinRefreshTokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
