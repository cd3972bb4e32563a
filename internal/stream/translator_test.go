package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

func TestTranslatorEmitsRoleOnce(t *testing.T) {
	tr := NewTranslator("qwen-max")

	chunks := tr.Feed(upstream.StreamEvent{Content: "hello"})
	require.Len(t, chunks, 2)
	assert.Equal(t, "assistant", chunks[0].Choices[0].Delta.Role)
	assert.Equal(t, "hello", chunks[1].Choices[0].Delta.Content)

	chunks = tr.Feed(upstream.StreamEvent{Content: " world"})
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Choices[0].Delta.Role)
}

func TestTranslatorWrapsThinkingPhase(t *testing.T) {
	tr := NewTranslator("qwen-max")

	chunks := tr.Feed(upstream.StreamEvent{Content: "pondering", Phase: "thinking"})
	content := lastDeltaContent(chunks)
	assert.Equal(t, "<think>pondering", content)

	chunks = tr.Feed(upstream.StreamEvent{Content: "the answer"})
	content = lastDeltaContent(chunks)
	assert.Equal(t, "</think>the answer", content)
}

func TestTranslatorFinishIsIdempotent(t *testing.T) {
	tr := NewTranslator("qwen-max")
	tr.Feed(upstream.StreamEvent{Content: "hi"})

	first := tr.Finish("stop")
	require.NotEmpty(t, first)

	second := tr.Finish("stop")
	assert.Empty(t, second)
}

func TestTranslatorFinishDefaultsToStop(t *testing.T) {
	tr := NewTranslator("qwen-max")
	chunks := tr.Finish("")
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Choices[0].FinishReason)
	assert.Equal(t, "stop", *chunks[0].Choices[0].FinishReason)
}

func lastDeltaContent(chunks []openai.StreamChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	return chunks[len(chunks)-1].Choices[0].Delta.Content
}
