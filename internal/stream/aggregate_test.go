package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

func TestAggregatorConcatenatesContent(t *testing.T) {
	agg := NewAggregator("qwen-max")
	agg.Feed(upstream.StreamEvent{Content: "hel"})
	agg.Feed(upstream.StreamEvent{Content: "lo"})
	agg.Feed(upstream.StreamEvent{FinishReason: "stop"})

	completion := agg.Finish()
	require.Len(t, completion.Choices, 1)
	assert.Equal(t, "hello", completion.Choices[0].Message.Content)
	assert.Equal(t, "stop", completion.Choices[0].FinishReason)
}

func TestAggregatorWrapsThinking(t *testing.T) {
	agg := NewAggregator("qwen-max")
	agg.Feed(upstream.StreamEvent{Content: "thinking...", Phase: "thinking"})
	agg.Feed(upstream.StreamEvent{Content: "done"})

	completion := agg.Finish()
	assert.Equal(t, "<think>thinking...</think>done", completion.Choices[0].Message.Content)
}

func TestAggregatorMergesToolCallsByIndex(t *testing.T) {
	agg := NewAggregator("qwen-max")
	agg.Feed(upstream.StreamEvent{ToolCalls: []upstream.StreamToolCall{{Index: 0, ID: "call_1", Type: "function", Name: "lookup", Arguments: `{"q":`}}})
	agg.Feed(upstream.StreamEvent{ToolCalls: []upstream.StreamToolCall{{Index: 0, Arguments: `1}`}}})

	completion := agg.Finish()
	require.Len(t, completion.Choices[0].Message.ToolCalls, 1)
	tc := completion.Choices[0].Message.ToolCalls[0]
	assert.Equal(t, "call_1", tc.ID)
	assert.Equal(t, `{"q":1}`, tc.Function.Arguments)
}

func TestAggregatorDefaultFinishReason(t *testing.T) {
	agg := NewAggregator("qwen-max")
	agg.Feed(upstream.StreamEvent{Content: "x"})

	completion := agg.Finish()
	assert.Equal(t, "stop", completion.Choices[0].FinishReason)
}
