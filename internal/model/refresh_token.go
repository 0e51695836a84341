package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  The opaque
// secret handed to the client is never stored; TokenHash holds its keyed
// SHA‑256 digest so that lookups by value remain possible.
//
// A row is Active while RevokedAt is nil and the clock has not passed
// ExpiresAt.  Revocation happens once, either on logout or when the token is
// consumed by a refresh; in the latter case ReplacedByTokenHash points at
// the digest of its successor.
type RefreshToken struct {
	ID                  uint64     `db:"id"`                     // refresh_tokens.id
	AccountID           uint64     `db:"account_id"`             // refresh_tokens.account_id
	TokenHash           string     `db:"token_hash"`             // refresh_tokens.token_hash
	ExpiresAt           time.Time  `db:"expires_at"`             // refresh_tokens.expires_at
	CreatedAt           time.Time  `db:"created_at"`             // refresh_tokens.created_at
	RevokedAt           *time.Time `db:"revoked_at"`             // refresh_tokens.revoked_at (nullable)
	ReplacedByTokenHash *string    `db:"replaced_by_token_hash"` // refresh_tokens.replaced_by_token_hash (nullable)
}

// Active reports whether the token can still be exchanged at now.  Expiry is
// inclusive: a token is still usable at exactly ExpiresAt.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && !now.After(t.ExpiresAt)
}

// Rotated reports whether the token was consumed by a refresh rather than
// revoked directly.
func (t RefreshToken) Rotated() bool {
	return t.RevokedAt != nil && t.ReplacedByTokenHash != nil && *t.ReplacedByTokenHash != ""
}
