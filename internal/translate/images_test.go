package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tingly-dev/qwenbridge/internal/openai"
)

func TestScanMarkdownImagesExtractsURLsInOrder(t *testing.T) {
	text := "here is one ![alt](https://a.test/1.png) and another ![](https://a.test/2.jpg)"
	urls := scanMarkdownImages(text)
	assert.Equal(t, []string{"https://a.test/1.png", "https://a.test/2.jpg"}, urls)
}

func TestScanMarkdownImagesNoMatches(t *testing.T) {
	assert.Empty(t, scanMarkdownImages("just plain text, no images here"))
}

func TestGuessContentTypeFromDataURL(t *testing.T) {
	assert.Equal(t, "image/png", guessContentType("data:image/png;base64,abcd"))
}

func TestGuessContentTypeFromExtension(t *testing.T) {
	assert.Equal(t, "image/png", guessContentType("https://a.test/x.PNG"))
	assert.Equal(t, "image/gif", guessContentType("https://a.test/x.gif"))
	assert.Equal(t, "image/webp", guessContentType("https://a.test/x.webp"))
	assert.Equal(t, "image/jpeg", guessContentType("https://a.test/x.jpeg"))
	assert.Equal(t, "image/jpeg", guessContentType("https://a.test/x.unknown"))
}

func TestBuildFileDescriptorFieldDefaults(t *testing.T) {
	now := time.Unix(1700000000, 0)
	fd := buildFileDescriptor("https://a.test/x.png", now)

	assert.NotEmpty(t, fd.ID)
	assert.NotEmpty(t, fd.ItemID)
	assert.NotEmpty(t, fd.UploadTaskID)
	assert.Equal(t, "https://a.test/x.png", fd.URL)
	assert.Equal(t, "image/png", fd.FileType)
	assert.Equal(t, int64(0), fd.Size)
	assert.Equal(t, "uploaded", fd.Status)
	assert.Equal(t, "vision", fd.FileClass)
	assert.Equal(t, "image", fd.ShowType)
	assert.Contains(t, fd.Name, ".png")
}

func TestExtractMessageImagesPrefersTypedParts(t *testing.T) {
	msg := openai.Message{
		Content: openai.Content{
			IsParts: true,
			Parts: []openai.Part{
				{Type: openai.PartImageURL, ImageURL: &openai.ImageURL{URL: "https://a.test/1.png"}},
			},
		},
	}
	assert.Equal(t, []string{"https://a.test/1.png"}, extractMessageImages(msg))
}

func TestExtractMessageImagesFallsBackToMarkdownScan(t *testing.T) {
	msg := openai.Message{
		Content: openai.Content{Text: "look at ![img](https://a.test/1.png)"},
	}
	assert.Equal(t, []string{"https://a.test/1.png"}, extractMessageImages(msg))
}

func TestCollectHistoryImagesExcludesLastMessage(t *testing.T) {
	messages := []openai.Message{
		{Content: openai.Content{Text: "first ![img](https://a.test/1.png)"}},
		{Content: openai.Content{Text: "second ![img](https://a.test/2.png)"}},
		{Content: openai.Content{Text: "current message, no image"}},
	}

	urls := collectHistoryImages(messages)
	assert.Equal(t, []string{"https://a.test/2.png", "https://a.test/1.png"}, urls)
}

func TestCollectHistoryImagesEmptyWhenNoMessages(t *testing.T) {
	assert.Empty(t, collectHistoryImages(nil))
}
