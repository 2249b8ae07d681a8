package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromptTestSession(t *testing.T, prompts ...*ServerPrompt) *ServerSession {
	t.Helper()
	server := NewServer("test", "0.0.1", nil)
	for _, p := range prompts {
		server.Prompts.AddPrompt(p)
	}
	return newServerSession(server, nil, nopLogger())
}

func TestHandleListPrompts(t *testing.T) {
	s := newPromptTestSession(t,
		&ServerPrompt{Prompt: &Prompt{Name: "b"}},
		&ServerPrompt{Prompt: &Prompt{Name: "a"}},
	)

	raw, err := json.Marshal(&ListPromptsParams{})
	require.NoError(t, err)
	result, err := s.handleListPrompts(context.Background(), &jsonrpc.Request{Method: methodListPrompts, Params: raw})
	require.NoError(t, err)
	require.Len(t, result.Prompts, 2)
	assert.Equal(t, "a", result.Prompts[0].Name)
	assert.Equal(t, "b", result.Prompts[1].Name)
}

func TestHandleListPromptsRejectsMalformedCursor(t *testing.T) {
	s := newPromptTestSession(t)
	raw, err := json.Marshal(&ListPromptsParams{Cursor: "not-valid-base64!!"})
	require.NoError(t, err)

	_, err = s.handleListPrompts(context.Background(), &jsonrpc.Request{Method: methodListPrompts, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, jsonrpc.CodeInvalidParams, we.Code)
}

func TestHandleGetPromptUnknownPrompt(t *testing.T) {
	s := newPromptTestSession(t)
	raw, err := json.Marshal(&GetPromptParams{Name: "missing"})
	require.NoError(t, err)

	_, err = s.handleGetPrompt(context.Background(), &jsonrpc.Request{Method: methodGetPrompt, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, jsonrpc.CodeInvalidParams, we.Code)
}

func TestHandleGetPromptMissingRequiredArgument(t *testing.T) {
	s := newPromptTestSession(t, &ServerPrompt{
		Prompt: &Prompt{
			Name:      "greeting",
			Arguments: []*PromptArgument{{Name: "name", Required: true}},
		},
		Handler: func(ctx context.Context, args map[string]string) (*GetPromptResult, error) {
			t.Fatal("handler must not run when a required argument is missing")
			return nil, nil
		},
	})
	raw, err := json.Marshal(&GetPromptParams{Name: "greeting"})
	require.NoError(t, err)

	_, err = s.handleGetPrompt(context.Background(), &jsonrpc.Request{Method: methodGetPrompt, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, jsonrpc.CodeInvalidParams, we.Code)
}

func TestHandleGetPromptInvokesHandlerWithArguments(t *testing.T) {
	var gotArgs map[string]string
	s := newPromptTestSession(t, &ServerPrompt{
		Prompt: &Prompt{
			Name:      "greeting",
			Arguments: []*PromptArgument{{Name: "name", Required: true}},
		},
		Handler: func(ctx context.Context, args map[string]string) (*GetPromptResult, error) {
			gotArgs = args
			return &GetPromptResult{
				Messages: []*PromptMessage{{Role: "user", Content: NewTextContent("hi " + args["name"])}},
			}, nil
		},
	})
	raw, err := json.Marshal(&GetPromptParams{Name: "greeting", Arguments: map[string]string{"name": "Ada"}})
	require.NoError(t, err)

	result, err := s.handleGetPrompt(context.Background(), &jsonrpc.Request{Method: methodGetPrompt, Params: raw})
	require.NoError(t, err)
	assert.Equal(t, "Ada", gotArgs["name"])
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "hi Ada", result.Messages[0].Content.Text)
}

func TestHandleGetPromptAllowsMissingOptionalArgument(t *testing.T) {
	s := newPromptTestSession(t, &ServerPrompt{
		Prompt: &Prompt{
			Name:      "greeting",
			Arguments: []*PromptArgument{{Name: "name", Required: false}},
		},
		Handler: func(ctx context.Context, args map[string]string) (*GetPromptResult, error) {
			return &GetPromptResult{}, nil
		},
	})
	raw, err := json.Marshal(&GetPromptParams{Name: "greeting"})
	require.NoError(t, err)

	_, err = s.handleGetPrompt(context.Background(), &jsonrpc.Request{Method: methodGetPrompt, Params: raw})
	assert.NoError(t, err)
}
