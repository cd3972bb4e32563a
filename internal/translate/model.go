// Package translate implements the request translator: converting an
// OpenAI chat request into the upstream's two-stage create-chat /
// post-message protocol, including modality routing, vision-model
// fallback, image attachment normalization, and history compression.
package translate

import (
	"strings"

	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// suffixChatType maps a recognized model suffix to its chat-type. The
// string strip is a pure function, per the design notes' "suffix-driven
// dispatch" cue.
var suffixChatType = map[string]upstream.ChatType{
	"image":      upstream.ChatImage,
	"image_edit": upstream.ChatImageEdit,
	"video":      upstream.ChatVideo,
}

// recognizedSuffixes lists every suffix stripped from the model name,
// including ones that don't change chat-type (search, thinking).
var recognizedSuffixes = []string{"search", "thinking", "image_edit", "image", "video"}

// ResolveModel strips any recognized suffix from modelName and returns
// the bare upstream model name, the derived chat-type, and whether the
// original name carried the -thinking suffix (needed later for
// thinking_enabled regardless of which other suffix, if any, was also
// present).
func ResolveModel(modelName string) (bare string, chatType upstream.ChatType, hadThinking bool) {
	bare = modelName
	chatType = upstream.ChatText

	for {
		stripped := false
		for _, suffix := range recognizedSuffixes {
			tag := "-" + suffix
			if !strings.HasSuffix(bare, tag) {
				continue
			}
			bare = strings.TrimSuffix(bare, tag)
			stripped = true
			if suffix == "thinking" {
				hadThinking = true
			}
			if ct, ok := suffixChatType[suffix]; ok {
				chatType = ct
			}
			break
		}
		if !stripped {
			break
		}
	}
	return bare, chatType, hadThinking
}
