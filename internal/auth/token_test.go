package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Minute)

	token, expiresAt, err := manager.GenerateToken("reporting-client")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reporting-client", claims.ClientID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute)
	verifier := NewTokenManager("secret-b", time.Minute)

	token, _, err := issuer.GenerateToken("client")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Minute)
	manager.ttl = -time.Minute

	token, _, err := manager.GenerateToken("client")
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Minute)

	_, err := manager.ParseToken("not-a-token")
	assert.Error(t, err)
}
