package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := RefreshToken{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, tok.Active(now))
	assert.True(t, tok.Active(tok.ExpiresAt), "expiry is inclusive")
	assert.False(t, tok.Active(tok.ExpiresAt.Add(time.Nanosecond)))

	revoked := now
	tok.RevokedAt = &revoked
	assert.False(t, tok.Active(now))
	assert.False(t, tok.Rotated())

	next := "abc"
	tok.ReplacedByTokenHash = &next
	assert.True(t, tok.Rotated())
}
