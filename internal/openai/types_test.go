package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentUnmarshalPlainString(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`"hello"`), &c))
	assert.False(t, c.IsParts)
	assert.Equal(t, "hello", c.PlainText())
}

func TestContentUnmarshalParts(t *testing.T) {
	var c Content
	raw := `[{"type":"text","text":"look at this"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.True(t, c.IsParts)
	assert.Equal(t, "look at this", c.PlainText())
	assert.Equal(t, []string{"https://x/y.png"}, c.ImageURLs())
}

func TestContentMarshalRoundTrip(t *testing.T) {
	c := Content{Text: "plain"}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"plain"`, string(data))

	var back Content
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "plain", back.PlainText())
}

func TestRequestWantsStream(t *testing.T) {
	r := Request{}
	assert.True(t, r.WantsStream())

	f := false
	r.Stream = &f
	assert.False(t, r.WantsStream())

	tr := true
	r.Stream = &tr
	assert.True(t, r.WantsStream())
}

func TestPlainTextJoinsMultipleTextParts(t *testing.T) {
	c := Content{IsParts: true, Parts: []Part{
		{Type: PartText, Text: "a"},
		{Type: PartText, Text: "b"},
	}}
	assert.Equal(t, "a b", c.PlainText())
}
