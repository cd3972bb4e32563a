package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tingly-dev/qwenbridge/internal/apierr"
	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

const maxHistoryImages = 3

// Credentials is the (token, cookie) pair the translator needs to call
// create-chat; it is identity-agnostic on purpose so tests can supply a
// bare pair without building a full identity.Identity.
type Credentials struct {
	Token  string
	Cookie string
}

// Translator converts OpenAI chat requests into the upstream's
// two-stage protocol.
type Translator struct {
	Upstream            *upstream.Client
	VisionFallbackModel string
}

// Result is everything the execution orchestrator needs after a
// successful translation.
type Result struct {
	ChatID       string
	Request      upstream.CompletionRequest
	UsedFallback bool
}

// Translate implements the algorithm in full: validate, resolve model
// and chat-type, apply vision fallback, create the upstream chat, then
// build the message envelope along the branch the resolved chat-type
// selects.
func (t *Translator) Translate(ctx context.Context, req openai.Request, creds Credentials) (Result, error) {
	if len(req.Messages) == 0 {
		return Result{}, apierr.New(apierr.KindBadRequest, "messages must be a non-empty sequence")
	}

	bareModel, chatType, hadThinking := ResolveModel(req.Model)

	usedFallback := false
	if t.VisionFallbackModel != "" && chatType == upstream.ChatText && requestHasImages(req.Messages) {
		bareModel = t.VisionFallbackModel
		usedFallback = true
	}

	now := time.Now()
	timestampMs := now.UnixMilli()

	chatID, err := t.Upstream.CreateChat(ctx, creds.Token, creds.Cookie, upstream.CreateChatRequest{
		Title:     "New Chat",
		Models:    []string{bareModel},
		ChatMode:  "normal",
		ChatType:  chatType,
		Timestamp: timestampMs,
	})
	if err != nil {
		return Result{}, apierr.Wrap(apierr.KindUpstreamCreateChat, "create-chat failed", err)
	}
	if chatID == "" {
		return Result{}, apierr.New(apierr.KindUpstreamCreateChat, "create-chat returned no id")
	}

	wantStream := req.WantsStream()
	timestampSec := now.Unix()

	var messages []upstream.Message
	switch chatType {
	case upstream.ChatImage:
		messages = buildT2IMessages(req, bareModel, timestampSec, now)
	case upstream.ChatImageEdit:
		var downgraded bool
		messages, downgraded = buildImageEditMessages(req, bareModel, timestampSec, now)
		if downgraded {
			chatType = upstream.ChatImage
		}
	default:
		messages = buildTextMessages(req, bareModel, timestampSec, hadThinking, now)
	}

	size := ""
	if chatType == upstream.ChatImage {
		if ratio, ok := AspectRatio(req.Size); ok {
			size = ratio
		}
	}

	upReq := upstream.CompletionRequest{
		ChatID:            chatID,
		ChatMode:          "normal",
		Model:             bareModel,
		Stream:            wantStream,
		IncrementalOutput: wantStream,
		Size:              size,
		Messages:          messages,
	}

	if err := validateResult(chatID, messages); err != nil {
		return Result{}, err
	}

	return Result{ChatID: chatID, Request: upReq, UsedFallback: usedFallback}, nil
}

func requestHasImages(messages []openai.Message) bool {
	for _, m := range messages {
		if len(m.Content.ImageURLs()) > 0 {
			return true
		}
	}
	return false
}

func newEnvelope(chatType upstream.ChatType, role, content string, files []upstream.FileDescriptor, model string, timestampSec int64, thinkingEnabled bool) upstream.Message {
	msg := upstream.Message{
		FID:         uuid.NewString(),
		ParentID:    nil,
		ChildrenIDs: []string{},
		Role:        role,
		Content:     content,
		Files:       files,
		Timestamp:   timestampSec,
		Models:      []string{model},
		FeatureConfig: upstream.FeatureConfig{
			ThinkingEnabled: thinkingEnabled,
			OutputSchema:    "phase",
		},
		ChatType:    chatType,
		SubChatType: chatType,
		Extra:       upstream.Extra{Meta: upstream.ExtraMeta{SubChatType: chatType}},
	}
	if role == "user" {
		msg.UserAction = "chat"
	}
	if files == nil {
		msg.Files = []upstream.FileDescriptor{}
	}
	return msg
}

// buildT2IMessages implements the t2i branch: last user message's text,
// aspect-ratio-mapped size (handled by the caller), empty files, a
// non-empty placeholder when text is missing.
func buildT2IMessages(req openai.Request, model string, timestampSec int64, now time.Time) []upstream.Message {
	last := lastUserMessage(req.Messages)
	text := strings.TrimSpace(last.Content.PlainText())
	if text == "" {
		text = "Generate an image"
	}
	msg := newEnvelope(upstream.ChatImage, "user", text, nil, model, timestampSec, false)
	return []upstream.Message{msg}
}

// buildImageEditMessages implements the image_edit branch: text + images
// from the last user message, plus a history scan (Markdown images in
// assistant text, parts/Markdown in user content). Current-message
// images come first, then history images newest message first; the last
// 3 of that sequence are kept and the last of those is uploaded
// (pass-through) as the single attached file. Falls back
// (downgraded=true) to t2i when no image could be attached.
func buildImageEditMessages(req openai.Request, model string, timestampSec int64, now time.Time) (msgs []upstream.Message, downgraded bool) {
	last := lastUserMessage(req.Messages)
	text := strings.TrimSpace(last.Content.PlainText())

	current := extractMessageImages(last)
	history := collectHistoryImages(req.Messages)
	combined := append(append([]string{}, current...), history...)
	if len(combined) > maxHistoryImages {
		combined = combined[len(combined)-maxHistoryImages:]
	}

	if len(combined) == 0 {
		placeholder := text
		if placeholder == "" {
			placeholder = "Generate an image"
		}
		msg := newEnvelope(upstream.ChatImage, "user", placeholder, nil, model, timestampSec, false)
		return []upstream.Message{msg}, true
	}

	uploaded := buildFileDescriptor(combined[len(combined)-1], now)
	msg := newEnvelope(upstream.ChatImageEdit, "user", text, []upstream.FileDescriptor{uploaded}, model, timestampSec, false)
	return []upstream.Message{msg}, false
}

// buildTextMessages implements the t2t branch: transcript compression of
// prior turns into a single synthesized user message, with a reset
// marker on the single-turn case, and thinking_enabled mirroring the
// original model's -thinking suffix.
func buildTextMessages(req openai.Request, model string, timestampSec int64, thinkingEnabled bool, now time.Time) []upstream.Message {
	var system string
	var turns []openai.Message
	for _, m := range req.Messages {
		if m.Role == openai.RoleSystem && system == "" {
			system = strings.TrimSpace(m.Content.PlainText())
			continue
		}
		turns = append(turns, m)
	}

	lastIdx := lastUserMessageIndex(turns)
	var last openai.Message
	var history []openai.Message
	if lastIdx >= 0 {
		last = turns[lastIdx]
		history = append(append([]openai.Message{}, turns[:lastIdx]...), turns[lastIdx+1:]...)
	} else if len(turns) > 0 {
		last = turns[len(turns)-1]
		history = turns[:len(turns)-1]
	}

	var b strings.Builder
	singleTurn := len(history) == 0

	if singleTurn {
		b.WriteString("（新的对话，请忽略之前的上下文）\n")
		if system != "" {
			b.WriteString(system)
			b.WriteString("\n")
		}
	} else {
		if system != "" {
			b.WriteString(system)
			b.WriteString("\n")
		}
		b.WriteString("对话历史：\n")
		for _, m := range history {
			text := strings.TrimSpace(m.Content.PlainText())
			switch m.Role {
			case openai.RoleUser:
				fmt.Fprintf(&b, "用户: %s\n", text)
			case openai.RoleAssistant:
				fmt.Fprintf(&b, "助手: %s\n", text)
			}
		}
		b.WriteString("当前问题：")
	}
	b.WriteString(strings.TrimSpace(last.Content.PlainText()))

	var files []upstream.FileDescriptor
	for _, url := range last.Content.ImageURLs() {
		files = append(files, buildFileDescriptor(url, now))
	}

	msg := newEnvelope(upstream.ChatText, "user", b.String(), files, model, timestampSec, thinkingEnabled)
	return []upstream.Message{msg}
}

func lastUserMessage(messages []openai.Message) openai.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == openai.RoleUser {
			return messages[i]
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1]
	}
	return openai.Message{}
}

func lastUserMessageIndex(messages []openai.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == openai.RoleUser {
			return i
		}
	}
	return -1
}

// validateResult enforces the post-translation invariants: chat_id
// present; every message has fid and role; user messages additionally
// carry user_action, timestamp, models. Content is not checked.
func validateResult(chatID string, messages []upstream.Message) error {
	if chatID == "" {
		return apierr.New(apierr.KindTranslationError, "missing chat id after translation")
	}
	for _, m := range messages {
		if m.FID == "" || m.Role == "" {
			return apierr.New(apierr.KindTranslationError, "message missing fid or role")
		}
		if m.Role == "user" {
			if m.UserAction == "" || m.Timestamp == 0 || len(m.Models) == 0 {
				return apierr.New(apierr.KindTranslationError, "user message missing required fields")
			}
		}
	}
	return nil
}
