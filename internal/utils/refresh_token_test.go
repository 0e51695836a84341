package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshSecret(t *testing.T) {
	a, err := NewRefreshSecret(MinRefreshTokenBytes)
	require.NoError(t, err)
	b, err := NewRefreshSecret(MinRefreshTokenBytes)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, MinRefreshTokenBytes)
}

func TestNewRefreshSecret_ClampsToMinimum(t *testing.T) {
	s, err := NewRefreshSecret(8)
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, MinRefreshTokenBytes)
}

func TestTokenHasher(t *testing.T) {
	plain := NewTokenHasher("")
	keyed := NewTokenHasher("server-side-key")
	otherKey := NewTokenHasher("different-key")

	assert.Equal(t, plain.Hash("abc"), plain.Hash("abc"), "digest must be deterministic")
	assert.Len(t, plain.Hash("abc"), 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", plain.Hash("abc"))

	assert.Equal(t, keyed.Hash("abc"), keyed.Hash("abc"))
	assert.NotEqual(t, plain.Hash("abc"), keyed.Hash("abc"))
	assert.NotEqual(t, keyed.Hash("abc"), otherKey.Hash("abc"))
	assert.NotEqual(t, keyed.Hash("abc"), keyed.Hash("abd"))
}
