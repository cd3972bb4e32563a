package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// Translator converts a sequence of upstream StreamEvents into OpenAI
// chunks. It tracks the small amount of state needed across events: has
// the role delta been emitted yet, and is a thinking-phase wrapper
// currently open — a generalization of a reference stream-state
// tracker's per-block-index bookkeeping down to this spec's
// single-assistant-message model (tool-call fragments are passed
// through per event rather than accumulated here; aggregate.go does the
// index-keyed merge for the non-streaming path).
type Translator struct {
	ID      string
	Model   string
	Created int64

	roleSent     bool
	thinkingOpen bool
	finished     bool
}

// NewTranslator builds a Translator for one response.
func NewTranslator(model string) *Translator {
	return &Translator{
		ID:      "chatcmpl-" + uuid.NewString(),
		Model:   model,
		Created: time.Now().Unix(),
	}
}

func ptrString(s string) *string { return &s }

// Feed converts one upstream event into zero or more OpenAI chunks.
// The initial role delta is emitted once, on the first event that
// carries textual content or tool-call fragments.
func (t *Translator) Feed(ev upstream.StreamEvent) []openai.StreamChunk {
	var chunks []openai.StreamChunk

	hasContent := ev.Content != "" || len(ev.ToolCalls) > 0
	if !t.roleSent && hasContent {
		t.roleSent = true
		chunks = append(chunks, t.chunk(openai.Delta{Role: "assistant"}, nil))
	}

	if ev.Content != "" {
		content := ev.Content
		if ev.Phase == "thinking" {
			if !t.thinkingOpen {
				content = "<think>" + content
				t.thinkingOpen = true
			}
		} else if t.thinkingOpen {
			content = "</think>" + content
			t.thinkingOpen = false
		}
		chunks = append(chunks, t.chunk(openai.Delta{Content: content}, nil))
	}

	if len(ev.ToolCalls) > 0 {
		delta := openai.Delta{}
		for _, tc := range ev.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, openai.ToolCall{
				Index: tc.Index,
				ID:    tc.ID,
				Type:  tc.Type,
				Function: openai.ToolFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		chunks = append(chunks, t.chunk(delta, nil))
	}

	return chunks
}

// Finish closes any open thinking wrapper and emits the terminal chunk
// carrying finish_reason. Safe to call at most meaningfully once; later
// calls are no-ops, matching the idempotent-completion requirement
// (invariant 8) one level up in the orchestrator.
func (t *Translator) Finish(reason string) []openai.StreamChunk {
	if t.finished {
		return nil
	}
	t.finished = true

	var chunks []openai.StreamChunk
	if t.thinkingOpen {
		chunks = append(chunks, t.chunk(openai.Delta{Content: "</think>"}, nil))
		t.thinkingOpen = false
	}
	if reason == "" {
		reason = "stop"
	}
	chunks = append(chunks, t.chunk(openai.Delta{}, ptrString(reason)))
	return chunks
}

func (t *Translator) chunk(delta openai.Delta, finishReason *string) openai.StreamChunk {
	return openai.StreamChunk{
		ID:      t.ID,
		Object:  "chat.completion.chunk",
		Created: t.Created,
		Model:   t.Model,
		Choices: []openai.StreamChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finishReason,
		}},
	}
}
