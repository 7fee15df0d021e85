package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, match)

	_, err = ComparePasswordAndHash("hunter2", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	require.NoError(t, Init())

	token, err := CreateJWT("9d0e4a2f-5b3c-4a21-8f67-0c1d2e3f4a5b")
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "9d0e4a2f-5b3c-4a21-8f67-0c1d2e3f4a5b", sub)

	_, err = AuthenticateJWT(token + "x")
	assert.Error(t, err)
}

func TestTokenTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "24h")
	require.NoError(t, Init())
	assert.Equal(t, 24*60*60, TokenTTLSeconds())

	t.Setenv("TOKEN_TTL", "never")
	require.NoError(t, Init())
	assert.Equal(t, 0, TokenTTLSeconds())

	t.Setenv("TOKEN_TTL", "soon")
	assert.Error(t, Init())
}
