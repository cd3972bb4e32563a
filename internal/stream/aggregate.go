package stream

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// Aggregator consumes the same upstream events as Translator but
// produces a single concatenated assistant string, for non-streaming
// mode. Thinking-phase text is wrapped identically to the streaming
// path; tool-call fragments are merged by index, concatenating argument
// strings, per OpenAI's accumulation rules (invariant 7: the two must
// agree on final content up to whitespace at chunk boundaries).
type Aggregator struct {
	Model string

	content      strings.Builder
	thinkingOpen bool
	toolCalls    map[int]*openai.ToolCall
	order        []int
	finishReason string
}

// NewAggregator builds an Aggregator for one response.
func NewAggregator(model string) *Aggregator {
	return &Aggregator{Model: model, toolCalls: make(map[int]*openai.ToolCall)}
}

// Feed folds one upstream event into the running aggregate.
func (a *Aggregator) Feed(ev upstream.StreamEvent) {
	if ev.Content != "" {
		if ev.Phase == "thinking" {
			if !a.thinkingOpen {
				a.content.WriteString("<think>")
				a.thinkingOpen = true
			}
		} else if a.thinkingOpen {
			a.content.WriteString("</think>")
			a.thinkingOpen = false
		}
		a.content.WriteString(ev.Content)
	}

	for _, tc := range ev.ToolCalls {
		existing, ok := a.toolCalls[tc.Index]
		if !ok {
			existing = &openai.ToolCall{Index: tc.Index, ID: tc.ID, Type: tc.Type}
			existing.Function.Name = tc.Name
			a.toolCalls[tc.Index] = existing
			a.order = append(a.order, tc.Index)
		}
		if tc.ID != "" {
			existing.ID = tc.ID
		}
		if tc.Name != "" {
			existing.Function.Name = tc.Name
		}
		existing.Function.Arguments += tc.Arguments
	}

	if ev.FinishReason != "" {
		a.finishReason = ev.FinishReason
	}
}

// Finish closes any open thinking wrapper and returns the completed
// OpenAI non-streaming completion.
func (a *Aggregator) Finish() openai.Completion {
	if a.thinkingOpen {
		a.content.WriteString("</think>")
		a.thinkingOpen = false
	}

	reason := a.finishReason
	if reason == "" {
		reason = "stop"
	}

	msg := openai.CompletionMsg{
		Role:    "assistant",
		Content: a.content.String(),
	}

	sort.Ints(a.order)
	for _, idx := range a.order {
		msg.ToolCalls = append(msg.ToolCalls, *a.toolCalls[idx])
	}

	return openai.Completion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   a.Model,
		Choices: []openai.CompletionChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: reason,
		}},
	}
}
