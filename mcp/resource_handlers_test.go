package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResourceTestSession(t *testing.T, resources ...*ServerResource) *ServerSession {
	t.Helper()
	server := NewServer("test", "0.0.1", nil)
	for _, r := range resources {
		server.Resources.AddResource(r)
	}
	return newServerSession(server, nil, nopLogger())
}

func TestHandleListResources(t *testing.T) {
	s := newResourceTestSession(t,
		&ServerResource{Resource: &Resource{URI: "note://b", Name: "b"}},
		&ServerResource{Resource: &Resource{URI: "note://a", Name: "a"}},
	)

	raw, err := json.Marshal(&ListResourcesParams{})
	require.NoError(t, err)
	result, err := s.handleListResources(context.Background(), &jsonrpc.Request{Method: methodListResources, Params: raw})
	require.NoError(t, err)
	require.Len(t, result.Resources, 2)
	assert.Equal(t, "note://a", result.Resources[0].URI)
	assert.Equal(t, "note://b", result.Resources[1].URI)
}

func TestHandleListResourcesOmitsTemplatesFromFixedListing(t *testing.T) {
	s := newResourceTestSession(t,
		&ServerResource{Resource: &Resource{URI: "note://a", Name: "a"}},
		&ServerResource{Template: &ResourceTemplate{URITemplate: "note://{id}", Name: "templated"}},
	)

	raw, err := json.Marshal(&ListResourcesParams{})
	require.NoError(t, err)
	result, err := s.handleListResources(context.Background(), &jsonrpc.Request{Method: methodListResources, Params: raw})
	require.NoError(t, err)
	require.Len(t, result.Resources, 1)
	assert.Equal(t, "note://a", result.Resources[0].URI)
}

func TestHandleListResourcesRejectsMalformedCursor(t *testing.T) {
	s := newResourceTestSession(t)
	raw, err := json.Marshal(&ListResourcesParams{Cursor: "not-valid-base64!!"})
	require.NoError(t, err)

	_, err = s.handleListResources(context.Background(), &jsonrpc.Request{Method: methodListResources, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, jsonrpc.CodeInvalidParams, we.Code)
}

func TestHandleReadResourceExactMatch(t *testing.T) {
	s := newResourceTestSession(t, &ServerResource{
		Resource: &Resource{URI: "note://welcome", Name: "welcome"},
		Handler: func(ctx context.Context, uri string) (*ReadResourceResult, error) {
			return &ReadResourceResult{Contents: []*ResourceContents{{URI: uri, Text: "hello"}}}, nil
		},
	})
	raw, err := json.Marshal(&ReadResourceParams{URI: "note://welcome"})
	require.NoError(t, err)

	result, err := s.handleReadResource(context.Background(), &jsonrpc.Request{Method: methodReadResource, Params: raw})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "hello", result.Contents[0].Text)
}

func TestHandleReadResourceTemplateMatch(t *testing.T) {
	var gotURI string
	s := newResourceTestSession(t, &ServerResource{
		Template: &ResourceTemplate{URITemplate: "note://{id}", Name: "note"},
		Handler: func(ctx context.Context, uri string) (*ReadResourceResult, error) {
			gotURI = uri
			return &ReadResourceResult{Contents: []*ResourceContents{{URI: uri}}}, nil
		},
	})
	raw, err := json.Marshal(&ReadResourceParams{URI: "note://42"})
	require.NoError(t, err)

	_, err = s.handleReadResource(context.Background(), &jsonrpc.Request{Method: methodReadResource, Params: raw})
	require.NoError(t, err)
	assert.Equal(t, "note://42", gotURI)
}

func TestHandleReadResourceUnknownURI(t *testing.T) {
	s := newResourceTestSession(t)
	raw, err := json.Marshal(&ReadResourceParams{URI: "note://missing"})
	require.NoError(t, err)

	_, err = s.handleReadResource(context.Background(), &jsonrpc.Request{Method: methodReadResource, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, CodeResourceNotFound, we.Code)
}

func TestHandleSubscribeUnknownURI(t *testing.T) {
	s := newResourceTestSession(t)
	raw, err := json.Marshal(&SubscribeParams{URI: "note://missing"})
	require.NoError(t, err)

	_, err = s.handleSubscribe(context.Background(), &jsonrpc.Request{Method: methodSubscribe, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, CodeResourceNotFound, we.Code)
	assert.False(t, s.isSubscribed("note://missing"))
}

func TestHandleSubscribeAndUnsubscribe(t *testing.T) {
	s := newResourceTestSession(t, &ServerResource{
		Resource: &Resource{URI: "note://welcome", Name: "welcome"},
	})
	raw, err := json.Marshal(&SubscribeParams{URI: "note://welcome"})
	require.NoError(t, err)

	_, err = s.handleSubscribe(context.Background(), &jsonrpc.Request{Method: methodSubscribe, Params: raw})
	require.NoError(t, err)
	assert.True(t, s.isSubscribed("note://welcome"))

	raw, err = json.Marshal(&UnsubscribeParams{URI: "note://welcome"})
	require.NoError(t, err)
	_, err = s.handleUnsubscribe(context.Background(), &jsonrpc.Request{Method: methodUnsubscribe, Params: raw})
	require.NoError(t, err)
	assert.False(t, s.isSubscribed("note://welcome"))
}

func TestHandleUnsubscribeUnknownURIIsNotAnError(t *testing.T) {
	s := newResourceTestSession(t)
	raw, err := json.Marshal(&UnsubscribeParams{URI: "note://never-subscribed"})
	require.NoError(t, err)

	_, err = s.handleUnsubscribe(context.Background(), &jsonrpc.Request{Method: methodUnsubscribe, Params: raw})
	assert.NoError(t, err)
}
