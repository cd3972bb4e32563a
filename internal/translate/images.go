package translate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// markdownImage matches a Markdown image reference: ![alt](url).
var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// scanMarkdownImages extracts every image URL from Markdown-image syntax
// in text, in order of appearance.
func scanMarkdownImages(text string) []string {
	matches := markdownImage.FindAllStringSubmatch(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}

// buildFileDescriptor synthesizes an image file descriptor for a
// by-reference attachment (upload is pass-through: no network I/O, just
// a descriptor pointing at the URL), per the data model's field list:
// content-type guessed from data-URL MIME or URL extension; filename
// synthesized from the current timestamp; size 0, hash absent; status
// "uploaded"; fresh id/itemId/uploadTaskId; file_class "vision";
// showType "image".
func buildFileDescriptor(url string, now time.Time) upstream.FileDescriptor {
	contentType := guessContentType(url)
	ext := extensionForContentType(contentType)
	filename := fmt.Sprintf("image_%d%s", now.UnixMilli(), ext)

	return upstream.FileDescriptor{
		ID:           uuid.NewString(),
		ItemID:       uuid.NewString(),
		UploadTaskID: uuid.NewString(),
		Name:         filename,
		URL:          url,
		FileType:     contentType,
		Size:         0,
		Status:       "uploaded",
		FileClass:    "vision",
		ShowType:     "image",
	}
}

// guessContentType infers an image MIME type from a data: URL's embedded
// MIME, or from the remote URL's file extension; defaults to
// image/jpeg when neither is conclusive.
func guessContentType(url string) string {
	if strings.HasPrefix(url, "data:") {
		rest := strings.TrimPrefix(url, "data:")
		if semi := strings.Index(rest, ";"); semi >= 0 {
			mime := rest[:semi]
			if mime != "" {
				return mime
			}
		}
	}

	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	default:
		return "image/jpeg"
	}
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// extractMessageImages returns every image URL carried by msg: for
// typed-parts content, the image_url/image parts directly; for plain
// string content (an assistant's or user's already-rendered text),
// Markdown image references within it.
func extractMessageImages(msg openai.Message) []string {
	if urls := msg.Content.ImageURLs(); len(urls) > 0 {
		return urls
	}
	return scanMarkdownImages(msg.Content.PlainText())
}

// collectHistoryImages scans messages (oldest-first) for image
// references beyond the current (last) message, returning them newest
// history-message first, to be combined with the current message's own
// images by the caller. Per invariant 13, the caller concatenates
// current-first then history and keeps the last 3 of that sequence.
func collectHistoryImages(messages []openai.Message) []string {
	if len(messages) == 0 {
		return nil
	}
	var fromHistory []string
	for i := len(messages) - 2; i >= 0; i-- {
		fromHistory = append(fromHistory, extractMessageImages(messages[i])...)
	}
	return fromHistory
}
