package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", "coursehub", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	iss, err := NewIssuer(testSecret, "coursehub", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessTTL, iss.TTL())
}

func TestIssueAndVerify(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	iss, err := NewIssuer(testSecret, "coursehub", 15*time.Minute)
	require.NoError(t, err)
	iss = iss.WithClock(fixedClock(start))

	at, err := iss.Issue(Subject{ID: 42, Email: "a@x.com", FullName: "Ann", Role: "Student"})
	require.NoError(t, err)
	assert.WithinDuration(t, start.Add(15*time.Minute), at.Exp, 0)

	claims, err := iss.Verify(at.Token)
	require.NoError(t, err)
	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Ann", claims.FullName)
	assert.Equal(t, "Student", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	iss, err := NewIssuer(testSecret, "coursehub", 15*time.Minute)
	require.NoError(t, err)
	iss = iss.WithClock(fixedClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)))

	s := Subject{ID: 1, Email: "a@x.com", FullName: "Ann", Role: "Student"}
	a, err := iss.Issue(s)
	require.NoError(t, err)
	b, err := iss.Issue(s)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token, "same subject and clock must still produce distinct tokens")
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	base, err := NewIssuer(testSecret, "coursehub", 15*time.Minute)
	require.NoError(t, err)

	at, err := base.WithClock(fixedClock(start)).Issue(Subject{ID: 7, Role: "Student"})
	require.NoError(t, err)

	_, err = base.WithClock(fixedClock(start.Add(14*time.Minute + 59*time.Second))).Verify(at.Token)
	assert.NoError(t, err)

	_, err = base.WithClock(fixedClock(start.Add(15*time.Minute + time.Second))).Verify(at.Token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestVerify_ExpiryFollowsConfiguredTTL(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	base, err := NewIssuer(testSecret, "coursehub", 5*time.Minute)
	require.NoError(t, err)

	at, err := base.WithClock(fixedClock(start)).Issue(Subject{ID: 7})
	require.NoError(t, err)

	_, err = base.WithClock(fixedClock(start.Add(5*time.Minute + time.Second))).Verify(at.Token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestVerify_Rejects(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	iss, err := NewIssuer(testSecret, "coursehub", 15*time.Minute)
	require.NoError(t, err)
	iss = iss.WithClock(fixedClock(start))

	other, err := NewIssuer("another-secret", "coursehub", 15*time.Minute)
	require.NoError(t, err)
	forged, err := other.WithClock(fixedClock(start)).Issue(Subject{ID: 1})
	require.NoError(t, err)

	foreign, err := NewIssuer(testSecret, "someone-else", 15*time.Minute)
	require.NoError(t, err)
	wrongIss, err := foreign.WithClock(fixedClock(start)).Issue(Subject{ID: 1})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1",
		"exp": start.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":      "not.a.jwt",
		"empty":        "",
		"wrong key":    forged.Token,
		"wrong issuer": wrongIss.Token,
		"alg none":     none,
	} {
		_, err := iss.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidAccessToken, name)
	}
}
