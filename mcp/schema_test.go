package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"message": map[string]any{"type": "string"}},
		"required":   []string{"message"},
	}
}

func wireErrorCode(t *testing.T, err error) int {
	t.Helper()
	var we *jsonrpc.WireError
	require.True(t, errors.As(err, &we), "expected a *jsonrpc.WireError, got %T: %v", err, err)
	return we.Code
}

func TestNewJSONToolRejectsUnresolvableSchema(t *testing.T) {
	bad := map[string]any{"$ref": "#/definitions/missing"}
	_, err := NewJSONTool("echo", "", bad, nil)
	assert.Error(t, err)
}

func TestNewJSONToolValidatesArgumentsBeforeHandler(t *testing.T) {
	called := false
	tool, err := NewJSONTool("echo", "echoes a message", messageSchema(),
		func(ctx context.Context, args json.RawMessage) (*CallToolResult, error) {
			called = true
			return &CallToolResult{}, nil
		})
	require.NoError(t, err)

	_, err = tool.Handler(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err, "missing required property must fail as a transport error, not a result")
	assert.Equal(t, jsonrpc.CodeInvalidParams, wireErrorCode(t, err))
	assert.False(t, called, "handler must not run when validation fails")
}

func TestNewJSONToolInvokesHandlerOnValidArguments(t *testing.T) {
	tool, err := NewJSONTool("echo", "echoes a message", messageSchema(),
		func(ctx context.Context, args json.RawMessage) (*CallToolResult, error) {
			var in struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(args, &in))
			return &CallToolResult{Content: []*Content{NewTextContent(in.Message)}}, nil
		})
	require.NoError(t, err)

	result, err := tool.Handler(context.Background(), json.RawMessage(`{"message":"hi"}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "hi", result.Content[0].Text)
}

func TestNewJSONToolRejectsMalformedJSON(t *testing.T) {
	tool, err := NewJSONTool("echo", "", messageSchema(),
		func(ctx context.Context, args json.RawMessage) (*CallToolResult, error) {
			t.Fatal("handler must not run on malformed JSON")
			return nil, nil
		})
	require.NoError(t, err)

	_, err = tool.Handler(context.Background(), json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.Equal(t, jsonrpc.CodeInvalidParams, wireErrorCode(t, err))
}

func TestNewJSONToolTreatsEmptyArgumentsAsEmptyObject(t *testing.T) {
	schema := map[string]any{"type": "object", "required": []string{"message"}}
	tool, err := NewJSONTool("noop", "", schema,
		func(ctx context.Context, args json.RawMessage) (*CallToolResult, error) {
			t.Fatal("handler must not run when the empty-object default fails validation")
			return nil, nil
		})
	require.NoError(t, err)

	_, err = tool.Handler(context.Background(), nil)
	require.Error(t, err, "an empty instance against a required object schema should fail validation")
	assert.Equal(t, jsonrpc.CodeInvalidParams, wireErrorCode(t, err))
}

func TestNewJSONToolAcceptsNoArgumentsAgainstAnEmptySchema(t *testing.T) {
	tool, err := NewJSONTool("noop", "", map[string]any{"type": "object"},
		func(ctx context.Context, args json.RawMessage) (*CallToolResult, error) {
			return &CallToolResult{}, nil
		})
	require.NoError(t, err)

	result, err := tool.Handler(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
