package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// Client drives the upstream web-chat HTTP surface: create-chat,
// post-message, and the model catalogue.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// NewClient builds a Client over an already-configured *http.Client.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{HTTP: httpClient, BaseURL: baseURL}
}

// UpstreamStatusError carries the HTTP status and body the upstream
// returned for a non-2xx response, so callers can classify it (auth
// signal vs generic error) without re-parsing.
type UpstreamStatusError struct {
	Status int
	Body   string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// IsAuthSignal reports whether the status suggests an invalid/expired
// credential (401/403), the "strong auth signal" the identity pool
// reacts to with immediate quarantine.
func (e *UpstreamStatusError) IsAuthSignal() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// CreateChat calls POST {base}/api/v2/chats/new and returns the new
// chat's id.
func (c *Client) CreateChat(ctx context.Context, token, cookie string, req CreateChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v2/chats/new", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	for k, vs := range BuildHeaders(token, cookie, uuid.NewString(), c.BaseURL, false) {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", &UpstreamStatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed CreateChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	return parsed.Data.ID, nil
}

// PostCompletion calls POST {base}/api/v2/chat/completions?chat_id=<id>
// and returns the raw response for the caller (the stream translator) to
// read as SSE. The caller owns closing the response body.
func (c *Client) PostCompletion(ctx context.Context, token, cookie, chatID, requestID string, usedFallback bool, req CompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	body, err = patchRedundantChatType(body, req.Messages)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v2/chat/completions?chat_id=%s", c.BaseURL, chatID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range BuildHeaders(token, cookie, requestID, c.BaseURL, usedFallback) {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &UpstreamStatusError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return resp, nil
}

// ListModels calls GET {base}/api/models.
func (c *Client) ListModels(ctx context.Context, token, cookie string) ([]Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/models", nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range BuildHeaders(token, cookie, uuid.NewString(), c.BaseURL, false) {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &UpstreamStatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var models []Model
	if err := json.Unmarshal(respBody, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// DeleteChat removes a single stale upstream chat as part of the
// cleanup scheduler's bounded page. Best-effort: callers log and ignore
// failures rather than propagate them.
func (c *Client) DeleteChat(ctx context.Context, token, cookie, chatID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/api/v2/chats/"+chatID, nil)
	if err != nil {
		return err
	}
	for k, vs := range BuildHeaders(token, cookie, uuid.NewString(), c.BaseURL, false) {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return &UpstreamStatusError{Status: resp.StatusCode}
	}
	return nil
}

// ListChats calls GET {base}/api/v2/chats?page=<page> and returns every
// chat id listed under data[] in the response; the cleanup scheduler
// trims that list to its page size. The chat-listing endpoint is
// housekeeping, not translation, and sits outside the core's concern.
func (c *Client) ListChats(ctx context.Context, token, cookie string, page int) ([]string, error) {
	url := fmt.Sprintf("%s/api/v2/chats?page=%d", c.BaseURL, page)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range BuildHeaders(token, cookie, uuid.NewString(), c.BaseURL, false) {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &UpstreamStatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, err
	}
	ids := make([]string, len(parsed.Data))
	for i, d := range parsed.Data {
		ids[i] = d.ID
	}
	return ids, nil
}
