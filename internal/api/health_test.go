package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/qwenbridge/internal/identity"
)

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("does-not-matter-unverified"))
	require.NoError(t, err)
	return signed
}

func TestHealthSurfacesTokenRemainingLifetimeWithoutLeakingToken(t *testing.T) {
	pool := identity.NewPool(identity.DefaultConfig())
	tok := signToken(t, time.Now().Add(2*time.Hour))
	pool.Initialize([]identity.Credential{{Token: tok, Cookie: "secret-cookie"}})

	s := &Server{Pool: pool, StartedAt: time.Now()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"token_remaining_seconds"`)
	assert.NotContains(t, body, tok)
	assert.NotContains(t, body, "secret-cookie")
}
