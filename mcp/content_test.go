package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentConstructors(t *testing.T) {
	assert.Equal(t, &Content{Type: "text", Text: "hi"}, NewTextContent("hi"))
	assert.Equal(t, &Content{Type: "image", Data: []byte{1, 2}, MIMEType: "image/png"}, NewImageContent([]byte{1, 2}, "image/png"))
	assert.Equal(t, &Content{Type: "audio", Data: []byte{3}, MIMEType: "audio/wav"}, NewAudioContent([]byte{3}, "audio/wav"))

	rc := NewTextResourceContents("file:///a", "text/plain", "body")
	assert.Equal(t, &Content{Type: "resource", Resource: rc}, NewResourceContent(rc))
}

func TestContentUnmarshalRejectsUnknownType(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"type":"video","text":"nope"}`), &c)
	assert.Error(t, err)
}

func TestContentUnmarshalAcceptsKnownTypes(t *testing.T) {
	for _, typ := range []string{"text", "image", "audio", "resource"} {
		var c Content
		require.NoError(t, json.Unmarshal([]byte(`{"type":"`+typ+`"}`), &c))
		assert.Equal(t, typ, c.Type)
	}
}

func TestTextResourceContentsRoundTrip(t *testing.T) {
	rc := NewTextResourceContents("file:///a.txt", "text/plain", "hello")
	data, err := json.Marshal(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uri":"file:///a.txt","mimeType":"text/plain","text":"hello"}`, string(data))

	var got ResourceContents
	require.NoError(t, json.Unmarshal(data, &got))
	assert.False(t, got.IsBlob())
	assert.Equal(t, "hello", got.Text)
}

func TestBlobResourceContentsRoundTrip(t *testing.T) {
	rc := NewBlobResourceContents("file:///a.bin", "application/octet-stream", []byte{0xDE, 0xAD})
	data, err := json.Marshal(rc)
	require.NoError(t, err)

	var got ResourceContents
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.IsBlob())
	assert.Equal(t, []byte{0xDE, 0xAD}, got.Blob)
}

func TestBlobResourceContentsEmptyBlobStaysBlob(t *testing.T) {
	rc := NewBlobResourceContents("file:///empty.bin", "application/octet-stream", nil)
	data, err := json.Marshal(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uri":"file:///empty.bin","mimeType":"application/octet-stream","blob":""}`, string(data))

	var got ResourceContents
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.IsBlob())
	assert.Empty(t, got.Blob)
}

func TestResourceContentsUnmarshalDistinguishesTextFromAbsentBlob(t *testing.T) {
	var got ResourceContents
	require.NoError(t, json.Unmarshal([]byte(`{"uri":"file:///a","text":""}`), &got))
	assert.False(t, got.IsBlob())
}
