package upstream

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// patchRedundantChatType keeps the envelope's two redundant chat-type
// mirrors (messages[].sub_chat_type and messages[].extra.meta.subChatType)
// in lockstep with messages[].chat_type by patching the already-marshaled
// body in place. Message has struct fields for both mirrors too, but a
// Message built with only ChatType set would otherwise send them empty;
// the patch overwrites them with ChatType whatever they held. The
// upstream protocol carries chat_type in three places because it has
// grown new ones across versions without dropping the old.
func patchRedundantChatType(body []byte, messages []Message) ([]byte, error) {
	var err error
	for i, m := range messages {
		body, err = sjson.SetBytes(body, fmt.Sprintf("messages.%d.sub_chat_type", i), string(m.ChatType))
		if err != nil {
			return nil, err
		}
		body, err = sjson.SetBytes(body, fmt.Sprintf("messages.%d.extra.meta.subChatType", i), string(m.ChatType))
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}
