// Package upstream defines the wire shapes and transport for the
// upstream web-chat service this gateway drives: two-stage session
// protocol (create-chat, then post-message), SSE-delivered replies.
package upstream

// ChatType is the upstream conversational modality.
type ChatType string

const (
	ChatText      ChatType = "t2t"
	ChatImage     ChatType = "t2i"
	ChatImageEdit ChatType = "image_edit"
	ChatVideo     ChatType = "t2v"
)

// CreateChatRequest is the body of POST {base}/api/v2/chats/new.
type CreateChatRequest struct {
	Title     string   `json:"title"`
	Models    []string `json:"models"`
	ChatMode  string   `json:"chat_mode"`
	ChatType  ChatType `json:"chat_type"`
	Timestamp int64    `json:"timestamp"`
}

// CreateChatResponse is the response of the create-chat call; only
// data.id is required by the gateway.
type CreateChatResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// FileDescriptor is an image attachment descriptor embedded in a user
// message for vision / edit requests. Attachments are passed by URL, not
// re-uploaded, so Size is always 0 and Hash is always absent.
type FileDescriptor struct {
	ID            string `json:"id"`
	ItemID        string `json:"itemId"`
	UploadTaskID  string `json:"uploadTaskId"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	FileType      string `json:"file_type"`
	Size          int64  `json:"size"`
	Status        string `json:"status"`
	FileClass     string `json:"file_class"`
	ShowType      string `json:"showType"`
}

// FeatureConfig carries the feature flags attached to every message.
type FeatureConfig struct {
	ThinkingEnabled bool   `json:"thinking_enabled"`
	OutputSchema    string `json:"output_schema"`
}

// Extra wraps the subChatType metadata the upstream expects on every
// message alongside the top-level redundant SubChatType field.
type Extra struct {
	Meta ExtraMeta `json:"meta"`
}

type ExtraMeta struct {
	SubChatType ChatType `json:"subChatType"`
}

// Message is one message in the upstream envelope.
type Message struct {
	FID           string          `json:"fid"`
	ParentID      *string         `json:"parent_id"`
	ChildrenIDs   []string        `json:"childrenIds"`
	Role          string          `json:"role"`
	Content       string          `json:"content"`
	Files         []FileDescriptor `json:"files"`
	UserAction    string          `json:"user_action,omitempty"`
	Timestamp     int64           `json:"timestamp"`
	Models        []string        `json:"models"`
	FeatureConfig FeatureConfig   `json:"feature_config"`
	ChatType      ChatType        `json:"chat_type"`
	SubChatType   ChatType        `json:"sub_chat_type"`
	Extra         Extra           `json:"extra"`
}

// CompletionRequest is the body of
// POST {base}/api/v2/chat/completions?chat_id=<id>.
type CompletionRequest struct {
	ChatID            string    `json:"-"` // carried in the query string, not the body
	ChatMode          string    `json:"chat_mode"`
	Model             string    `json:"model"`
	Stream            bool      `json:"stream"`
	IncrementalOutput bool      `json:"incremental_output"`
	Size              string    `json:"size,omitempty"`
	Messages          []Message `json:"messages"`
}

// StreamEvent is one upstream SSE frame's decoded shape. Fields are read
// with gjson rather than a rigid struct for the delta, since the
// upstream's event shape is only partially documented and drifts across
// versions (§9); StreamEvent here captures the stable envelope around
// that delta.
type StreamEvent struct {
	Content      string
	Phase        string
	ToolCalls    []StreamToolCall
	FinishReason string
	HasChoice    bool
}

// StreamToolCall is one tool-call fragment decoded from an upstream
// stream event's delta.
type StreamToolCall struct {
	Index     int
	ID        string
	Type      string
	Name      string
	Arguments string
}

// Model is one entry of the upstream model catalogue.
type Model struct {
	ID               string   `json:"id"`
	ChatTypes        []string `json:"chat_types,omitempty"`
	SupportsThinking bool     `json:"supports_thinking,omitempty"`
}
