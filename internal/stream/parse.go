package stream

import (
	"github.com/tidwall/gjson"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// ParseEvent reads one upstream frame's JSON payload with gjson rather
// than a rigid struct, since the upstream event shape is only partially
// documented and drifts across versions — the translator only needs a
// handful of optional fields out of it and must be robust to ones it
// doesn't recognize (§9).
func ParseEvent(payload string) upstream.StreamEvent {
	root := gjson.Parse(payload)
	choice := root.Get("choices.0")
	if !choice.Exists() {
		return upstream.StreamEvent{}
	}

	delta := choice.Get("delta")
	ev := upstream.StreamEvent{
		HasChoice:    true,
		Content:      delta.Get("content").String(),
		Phase:        delta.Get("phase").String(),
		FinishReason: choice.Get("finish_reason").String(),
	}

	for _, tc := range delta.Get("tool_calls").Array() {
		ev.ToolCalls = append(ev.ToolCalls, parseToolCall(tc))
	}

	return ev
}

func parseToolCall(tc gjson.Result) upstream.StreamToolCall {
	return upstream.StreamToolCall{
		Index:     int(tc.Get("index").Int()),
		ID:        tc.Get("id").String(),
		Type:      tc.Get("type").String(),
		Name:      tc.Get("function.name").String(),
		Arguments: tc.Get("function.arguments").String(),
	}
}

// IsAnswerPhase reports whether phase should be treated as the default
// "answer" segment: any phase other than "thinking" degrades to answer,
// per the resolved open question on unknown phase values.
func IsAnswerPhase(phase string) bool {
	return phase != "thinking"
}
