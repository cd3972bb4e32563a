package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPatchRedundantChatTypeMirrorsEveryMessage(t *testing.T) {
	req := CompletionRequest{
		Model: "qwen-max",
		Messages: []Message{
			{FID: "f1", Role: "user", ChatType: ChatText},
			{FID: "f2", Role: "assistant", ChatType: ChatImage},
		},
	}

	body, err := json.Marshal(req)
	require.NoError(t, err)

	patched, err := patchRedundantChatType(body, req.Messages)
	require.NoError(t, err)

	assert.Equal(t, "t2t", gjson.GetBytes(patched, "messages.0.sub_chat_type").String())
	assert.Equal(t, "t2t", gjson.GetBytes(patched, "messages.0.extra.meta.subChatType").String())
	assert.Equal(t, "t2i", gjson.GetBytes(patched, "messages.1.sub_chat_type").String())
	assert.Equal(t, "t2i", gjson.GetBytes(patched, "messages.1.extra.meta.subChatType").String())
}

func TestPatchRedundantChatTypeNoMessagesIsNoop(t *testing.T) {
	body, err := json.Marshal(CompletionRequest{Model: "qwen-max"})
	require.NoError(t, err)

	patched, err := patchRedundantChatType(body, nil)
	require.NoError(t, err)
	assert.Equal(t, body, patched)
}
