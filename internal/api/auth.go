package api

import (
	"bytes"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/tingly-dev/qwenbridge/internal/apierr"
	"github.com/tingly-dev/qwenbridge/internal/translate"
)

const credentialsContextKey = "qwenbridge.credentials"

// ServerAuth enforces the configured API key (server mode): the
// gateway's own single credential pool serves every request, and the
// caller only needs to prove they're allowed to use it. The key may
// arrive as a Bearer token, an X-API-Key header, an api_key or key query
// parameter, or an api_key/key field in a POST request's JSON body.
func ServerAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if extractKey(c) != apiKey {
			status, body := apierr.ToBody(apierr.New(apierr.KindAuthRequired, "missing or invalid API key"), requestID(c))
			c.AbortWithStatusJSON(status, body)
			return
		}
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		// In client mode the bearer carries "api_key;qwen_token;cookie"
		// (or, with no server key configured, just "qwen_token;cookie");
		// only the segment before the first ';' is ever the api_key.
		if i := strings.Index(token, ";"); i >= 0 {
			token = token[:i]
		}
		return token
	}
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if key := c.Query("api_key"); key != "" {
		return key
	}
	if key := c.Query("key"); key != "" {
		return key
	}
	return bodyAPIKey(c)
}

// bodyAPIKey peeks the JSON body for an api_key/key field, for clients
// that can't set headers or query params. The body is restored onto the
// request afterward so downstream JSON binding still sees it intact.
func bodyAPIKey(c *gin.Context) string {
	if c.Request.Body == nil || c.Request.Method != "POST" {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	if v := gjson.GetBytes(raw, "api_key"); v.Exists() {
		return v.String()
	}
	return gjson.GetBytes(raw, "key").String()
}

// ClientCredentials parses a semicolon-delimited bearer value (client
// mode): the caller supplies their own upstream credential pair
// alongside the gateway's API key, bypassing the shared identity pool
// entirely for that request. The tuple is "api_key;qwen_token;cookie"
// when a server-side api_key is configured, or just "qwen_token;cookie"
// when it isn't (§6: "the api_key segment is absent when no server-side
// api_key is configured"). When present, the parsed pair is stashed on
// the gin context for the chat-completions handler to pick up.
func ClientCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		parts := strings.SplitN(token, ";", 3)
		switch len(parts) {
		case 3:
			c.Set(credentialsContextKey, translate.Credentials{Token: parts[1], Cookie: parts[2]})
		case 2:
			c.Set(credentialsContextKey, translate.Credentials{Token: parts[0], Cookie: parts[1]})
		}
		c.Next()
	}
}

func clientCredentials(c *gin.Context) (translate.Credentials, bool) {
	v, ok := c.Get(credentialsContextKey)
	if !ok {
		return translate.Credentials{}, false
	}
	creds, ok := v.(translate.Credentials)
	return creds, ok
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get("requestId"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
