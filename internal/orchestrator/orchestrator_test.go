package orchestrator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/qwenbridge/internal/identity"
	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/stream"
	"github.com/tingly-dev/qwenbridge/internal/translate"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// upstreamSSE is a fixed SSE recording: a role-only delta,
// two content deltas, then [DONE] — scenario S1 from the spec.
const upstreamSSE = "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"he\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"llo\"}}]}\n\n" +
	"data: [DONE]\n\n"

func newUpstreamServer(t *testing.T, statusForToken map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")

		if status, ok := statusForToken[token]; ok && status >= 400 {
			w.WriteHeader(status)
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/chats/new"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(upstream.CreateChatResponse{Data: struct {
				ID string `json:"id"`
			}{ID: "C1"}})
		case strings.Contains(r.URL.Path, "/chat/completions"):
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(upstreamSSE))
		}
	}))
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	return c, w
}

func textRequest(model string) openai.Request {
	return openai.Request{
		Model:    model,
		Messages: []openai.Message{{Role: openai.RoleUser, Content: openai.Content{Text: "hi"}}},
	}
}

// TestExecuteStreamsSuccessfulCompletion covers S1: a single healthy
// identity, a clean upstream recording, ends with exactly one [DONE] and
// marks the identity successful.
func TestExecuteStreamsSuccessfulCompletion(t *testing.T) {
	srv := newUpstreamServer(t, nil)
	defer srv.Close()

	client := upstream.NewClient(srv.Client(), srv.URL)
	pool := identity.NewPool(identity.DefaultConfig())
	pool.Initialize([]identity.Credential{{Token: "good-token", Cookie: "c1"}})

	orch := &Orchestrator{
		Pool:       pool,
		Upstream:   client,
		Translator: &translate.Translator{Upstream: client},
	}

	c, w := newContext()
	orch.Execute(c, textRequest("qwen-max"), nil)

	body := w.Body.String()
	assert.Equal(t, 1, strings.Count(body, "data: [DONE]"))
	assert.Contains(t, body, `"role":"assistant"`)
	assert.Contains(t, body, "he")
	assert.Contains(t, body, "llo")
	assert.Contains(t, body, `"finish_reason":"stop"`)

	snaps := pool.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, identity.Healthy, snaps[0].Health)
}

// TestExecuteFailsOverToAlternateIdentity covers S5: identity A returns
// 401 on create-chat before any bytes flow; the orchestrator retries with
// B and the client sees one clean streamed response.
func TestExecuteFailsOverToAlternateIdentity(t *testing.T) {
	srv := newUpstreamServer(t, map[string]int{"bad-token": http.StatusUnauthorized})
	defer srv.Close()

	client := upstream.NewClient(srv.Client(), srv.URL)
	pool := identity.NewPool(identity.Config{DegradeThreshold: 1, QuarantineThreshold: 1, QuarantineCooldown: 0})
	pool.Initialize([]identity.Credential{
		{Token: "bad-token", Cookie: "c1"},
		{Token: "good-token", Cookie: "c2"},
	})

	orch := &Orchestrator{
		Pool:       pool,
		Upstream:   client,
		Translator: &translate.Translator{Upstream: client},
	}

	c, w := newContext()
	orch.Execute(c, textRequest("qwen-max"), nil)

	assert.Equal(t, 1, strings.Count(w.Body.String(), "data: [DONE]"))

	var badHealth, goodHealth identity.Health
	for _, snap := range pool.Snapshots() {
		if snap.ID == "bad-token"[:8] {
			badHealth = snap.Health
		}
		if snap.ID == "good-tok" {
			goodHealth = snap.Health
		}
	}
	assert.Equal(t, identity.Quarantined, badHealth)
	assert.Equal(t, identity.Healthy, goodHealth)
}

// TestExecuteNoSelectableIdentityReturnsUpstreamUnavailable covers the
// empty-pool boundary: acquire() returning nil fails the request rather
// than blocking.
func TestExecuteNoSelectableIdentityReturnsUpstreamUnavailable(t *testing.T) {
	pool := identity.NewPool(identity.DefaultConfig())
	orch := &Orchestrator{Pool: pool, Translator: &translate.Translator{}}

	c, w := newContext()
	orch.Execute(c, textRequest("qwen-max"), nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unavailable")
}

func TestWriteSyntheticErrorEndsWithSingleDone(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSyntheticError(w, stream.NewTranslator("qwen-max"), "upstream connection dropped")

	body := w.Body.String()
	assert.Equal(t, 1, strings.Count(body, "data: [DONE]"))
	assert.Contains(t, body, "upstream connection dropped")
	assert.Contains(t, body, `"finish_reason":"stop"`)
}
