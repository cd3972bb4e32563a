package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("does-not-matter-unverified"))
	require.NoError(t, err)
	return signed
}

func TestIsExpired(t *testing.T) {
	future := signToken(t, time.Now().Add(time.Hour))
	past := signToken(t, time.Now().Add(-time.Hour))

	assert.False(t, IsExpired(future))
	assert.True(t, IsExpired(past))
}

func TestIsExpiredUnparseableTreatedAsExpired(t *testing.T) {
	assert.True(t, IsExpired("not-a-jwt"))
}

func TestRemainingLifetime(t *testing.T) {
	tok := signToken(t, time.Now().Add(2*time.Hour))
	remaining, ok := RemainingLifetime(tok)
	require.True(t, ok)
	assert.Greater(t, remaining, time.Hour)
}

func TestExpiresWithin(t *testing.T) {
	tok := signToken(t, time.Now().Add(time.Minute))
	assert.True(t, expiresWithin(tok, time.Hour))
	assert.False(t, expiresWithin(tok, 0))
}
