package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Configure("unit-test-secret", time.Hour)

	token, err := GenerateToken(42, "moderator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "moderator", claims.Role)
	assert.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestParseRejectsTamperedToken(t *testing.T) {
	Configure("unit-test-secret", time.Hour)

	token, err := GenerateToken(1, "debater")
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	Configure("secret-a", time.Hour)
	token, err := GenerateToken(1, "debater")
	require.NoError(t, err)

	Configure("secret-b", time.Hour)
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	Configure("unit-test-secret", time.Hour)
	old := tokenTTL
	tokenTTL = -time.Hour
	defer func() { tokenTTL = old }()

	token, err := GenerateToken(7, "debater")
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}
