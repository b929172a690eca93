package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenSecret = "test-secret"

func TestPictureTokenRoundtrip(t *testing.T) {
	token, err := SignPictureToken(tokenSecret, "abc.png", time.Minute)
	require.NoError(t, err)

	assert.NoError(t, VerifyPictureToken(tokenSecret, "abc.png", token))
}

func TestPictureTokenWrongFile(t *testing.T) {
	token, err := SignPictureToken(tokenSecret, "abc.png", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, VerifyPictureToken(tokenSecret, "other.png", token), ErrBadPictureToken)
}

func TestPictureTokenWrongSecret(t *testing.T) {
	token, err := SignPictureToken(tokenSecret, "abc.png", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, VerifyPictureToken("another-secret", "abc.png", token), ErrBadPictureToken)
}

func TestPictureTokenExpired(t *testing.T) {
	token, err := SignPictureToken(tokenSecret, "abc.png", -time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, VerifyPictureToken(tokenSecret, "abc.png", token), ErrBadPictureToken)
}

func TestPictureTokenGarbage(t *testing.T) {
	assert.ErrorIs(t, VerifyPictureToken(tokenSecret, "abc.png", ""), ErrBadPictureToken)
	assert.ErrorIs(t, VerifyPictureToken(tokenSecret, "abc.png", "not-a-jwt"), ErrBadPictureToken)
}
