package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRequest(t *testing.T) {
	req, err := NewCall(Int64ID(3), "tools/call", map[string]any{"name": "echo"})
	require.NoError(t, err)

	data, err := EncodeMessage(req)
	require.NoError(t, err)

	msg, err := DecodeMessage(data)
	require.NoError(t, err)

	got, ok := msg.(*Request)
	require.True(t, ok, "expected *Request, got %T", msg)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.Method, got.Method)
	assert.JSONEq(t, string(req.Params), string(got.Params))
}

func TestEncodeDecodeNotification(t *testing.T) {
	note, err := NewNotification("notifications/progress", nil)
	require.NoError(t, err)
	assert.False(t, note.IsCall())

	data, err := EncodeMessage(note)
	require.NoError(t, err)

	msg, err := DecodeMessage(data)
	require.NoError(t, err)

	got, ok := msg.(*Request)
	require.True(t, ok)
	assert.False(t, got.ID.IsValid())
	assert.Equal(t, "notifications/progress", got.Method)
}

func TestEncodeDecodeResponse(t *testing.T) {
	t.Run("result", func(t *testing.T) {
		resp, err := NewResponse(Int64ID(9), map[string]any{"ok": true}, nil)
		require.NoError(t, err)

		data, err := EncodeMessage(resp)
		require.NoError(t, err)

		msg, err := DecodeMessage(data)
		require.NoError(t, err)
		got, ok := msg.(*Response)
		require.True(t, ok)
		assert.Equal(t, resp.ID, got.ID)
		assert.Nil(t, got.Error)
		assert.JSONEq(t, string(resp.Result), string(got.Result))
	})

	t.Run("error", func(t *testing.T) {
		resp, err := NewResponse(Int64ID(9), nil, NewError(CodeInvalidParams, "bad args"))
		require.NoError(t, err)

		data, err := EncodeMessage(resp)
		require.NoError(t, err)

		msg, err := DecodeMessage(data)
		require.NoError(t, err)
		got, ok := msg.(*Response)
		require.True(t, ok)

		var we *WireError
		require.ErrorAs(t, got.Error, &we)
		assert.Equal(t, CodeInvalidParams, we.Code)
	})
}

func TestDecodeMessageRejectsResponseShapedNotification(t *testing.T) {
	// No "method" and no valid id: neither a request nor a response.
	_, err := DecodeMessage([]byte(`{"jsonrpc":"2.0"}`))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDecodeMessageRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeMessage([]byte(`not json`))
	assert.ErrorIs(t, err, ErrParse)
}

func TestMarshalToRawRoundTrip(t *testing.T) {
	req, err := NewCall(StringID("x"), "ping", nil)
	require.NoError(t, err)
	assert.Nil(t, req.Params)

	data, err := EncodeMessage(req)
	require.NoError(t, err)
	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	_, hasParams := wire["params"]
	assert.False(t, hasParams, "omitted params should not appear on the wire")
}
