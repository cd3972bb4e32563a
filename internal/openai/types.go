// Package openai defines the inbound/outbound wire shapes of the OpenAI
// Chat Completions API surface this gateway imitates.
package openai

import "encoding/json"

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Request is an inbound OpenAI-shaped chat completion request.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   *bool     `json:"stream,omitempty"`
	Size     string    `json:"size,omitempty"`
}

// WantsStream returns the effective stream flag: absent or explicit true
// both mean "stream"; only an explicit false disables it.
func (r *Request) WantsStream() bool {
	return r.Stream == nil || *r.Stream
}

// Message is one chat turn. Content is a tagged variant: either a plain
// string or a sequence of typed parts, matching the OpenAI union.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// PartType enumerates the content-part kinds in the typed-parts form.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
	PartImage    PartType = "image"
)

// Part is one element of a typed-parts content sequence.
type Part struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
	Image    *InlineImage `json:"image,omitempty"`
}

// ImageURL carries a remote or data-url image reference.
type ImageURL struct {
	URL string `json:"url"`
}

// InlineImage carries an inline image reference (the "image" part kind).
type InlineImage struct {
	URL string `json:"url,omitempty"`
}

// Content is the tagged variant {Text(string), Parts([]Part)} the design
// notes call for: OpenAI message content is either a plain string or a
// sequence of heterogeneous parts.
type Content struct {
	IsParts bool
	Text    string
	Parts   []Part
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.IsParts = false
		c.Text = s
		return nil
	}
	var parts []Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	c.IsParts = true
	c.Parts = parts
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsParts {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// PlainText flattens content to a string: returns Text directly, or the
// concatenation (space-joined) of text parts when Content is a parts
// sequence.
func (c Content) PlainText() string {
	if !c.IsParts {
		return c.Text
	}
	texts := make([]string, 0, len(c.Parts))
	for _, p := range c.Parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return joinSpace(texts)
}

// ImageURLs extracts every image reference (image_url or inline image
// part) from this content, in order.
func (c Content) ImageURLs() []string {
	if !c.IsParts {
		return nil
	}
	var urls []string
	for _, p := range c.Parts {
		switch p.Type {
		case PartImageURL:
			if p.ImageURL != nil && p.ImageURL.URL != "" {
				urls = append(urls, p.ImageURL.URL)
			}
		case PartImage:
			if p.Image != nil && p.Image.URL != "" {
				urls = append(urls, p.Image.URL)
			}
		}
	}
	return urls
}

func joinSpace(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

// StreamChunk is one OpenAI streaming chunk.
type StreamChunk struct {
	ID                string         `json:"id"`
	Object            string         `json:"object"`
	Created           int64          `json:"created"`
	Model             string         `json:"model"`
	Choices           []StreamChoice `json:"choices"`
	SystemFingerprint string         `json:"system_fingerprint,omitempty"`
}

// StreamChoice is the single choice carried by a StreamChunk.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental content of one stream chunk.
type Delta struct {
	Role      string     `json:"role,omitempty"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall mirrors OpenAI's delta.tool_calls shape.
type ToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function payload of a tool call.
type ToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Completion is a non-streaming OpenAI chat completion response.
type Completion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
}

// CompletionChoice is the single choice of a non-streaming Completion.
type CompletionChoice struct {
	Index        int             `json:"index"`
	Message      CompletionMsg   `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// CompletionMsg is the complete assistant message of a non-streaming
// Completion.
type CompletionMsg struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
