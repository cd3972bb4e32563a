package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func runMiddleware(mw gin.HandlerFunc, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	mw(c)
	return c, w
}

func TestServerAuthNoKeyConfiguredAllowsAnyRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	c, w := runMiddleware(ServerAuth(""), req)
	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code) // nothing written, recorder defaults to 200
}

func TestServerAuthAcceptsBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer secret")
	c, _ := runMiddleware(ServerAuth("secret"), req)
	assert.False(t, c.IsAborted())
}

func TestServerAuthAcceptsXAPIKeyHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("X-API-Key", "secret")
	c, _ := runMiddleware(ServerAuth("secret"), req)
	assert.False(t, c.IsAborted())
}

func TestServerAuthAcceptsQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models?key=secret", nil)
	c, _ := runMiddleware(ServerAuth("secret"), req)
	assert.False(t, c.IsAborted())
}

func TestServerAuthRejectsMismatchedKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	c, w := runMiddleware(ServerAuth("secret"), req)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServerAuthAcceptsBodyField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"qwen-max","api_key":"secret"}`))
	c, _ := runMiddleware(ServerAuth("secret"), req)
	assert.False(t, c.IsAborted())

	body, err := io.ReadAll(c.Request.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), `"api_key":"secret"`)
}

func TestClientCredentialsParsesSemicolonTuple(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer apikey;qwen-token;cookie=value")
	c, _ := runMiddleware(ClientCredentials(), req)

	creds, ok := clientCredentials(c)
	assert.True(t, ok)
	assert.Equal(t, "qwen-token", creds.Token)
	assert.Equal(t, "cookie=value", creds.Cookie)
}

func TestClientCredentialsAbsentWhenNotTuple(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer just-a-plain-key")
	c, _ := runMiddleware(ClientCredentials(), req)

	_, ok := clientCredentials(c)
	assert.False(t, ok)
}

func TestClientCredentialsParsesTwoPartTupleWithNoServerKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer qwen-token;cookie=value")
	c, _ := runMiddleware(ClientCredentials(), req)

	creds, ok := clientCredentials(c)
	assert.True(t, ok)
	assert.Equal(t, "qwen-token", creds.Token)
	assert.Equal(t, "cookie=value", creds.Cookie)
}

// TestServerAuthThenClientCredentialsAcceptsFullTuple exercises the
// actual route wiring (ServerAuth chained with ClientCredentials, as
// Router sets up the /v1 group): with a server-side api_key configured,
// the client-mode bearer's first segment must satisfy ServerAuth before
// ClientCredentials ever parses the remaining token/cookie.
func TestServerAuthThenClientCredentialsAcceptsFullTuple(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer secret;qwen-token;cookie=value")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	ServerAuth("secret")(c)
	require.False(t, c.IsAborted())
	ClientCredentials()(c)

	creds, ok := clientCredentials(c)
	assert.True(t, ok)
	assert.Equal(t, "qwen-token", creds.Token)
	assert.Equal(t, "cookie=value", creds.Cookie)
}
