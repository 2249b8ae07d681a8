// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// ResourceUpdatedHandler, if set, runs when the server sends
	// notifications/resources/updated, and ToolsListChangedHandler, if set,
	// runs on notifications/tools/list_changed, so a host application can
	// refresh its own view of what the server pushed.
	ResourceUpdatedHandler func(ctx context.Context, uri string)
	ToolsListChangedHandler func(ctx context.Context)
	Logger                  *slog.Logger
}

// Client is an MCP client: it dials a Transport, negotiates the handshake,
// and exposes the server's tools, prompts, and resources (§4.4, §4.5).
type Client struct {
	name, version string
	opts          ClientOptions
	roots         *featureSet[*Root]
}

// NewClient creates a Client identified to servers as name/version.
func NewClient(name, version string, opts *ClientOptions) *Client {
	c := &Client{name: name, version: version, roots: newFeatureSet[*Root](func(r *Root) string { return r.URI }, nil)}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.Logger == nil {
		c.opts.Logger = slog.Default()
	}
	return c
}

// AddRoots adds or replaces roots the client will serve from roots/list.
func (c *Client) AddRoots(roots ...*Root) { c.roots.add(roots...) }

// RemoveRoots removes roots by URI.
func (c *Client) RemoveRoots(uris ...string) { c.roots.remove(uris...) }

// ClientSession is one connection to a server, after a completed
// initialize handshake.
type ClientSession struct {
	client *Client
	conn   *jsonrpc.Connection
	Result *InitializeResult
}

// Connect dials t, performs the initialize/initialized handshake (§4.5),
// and returns the resulting session.
func (c *Client) Connect(ctx context.Context, t Transport) (*ClientSession, error) {
	rwc, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect transport: %w", err)
	}
	cs := &ClientSession{client: c}
	conn, err := jsonrpc.Dial(ctx, rwc, jsonrpc.BinderFunc(func(ctx context.Context, conn *jsonrpc.Connection) (jsonrpc.ConnectionOptions, error) {
		cs.conn = conn
		return jsonrpc.ConnectionOptions{
			Framer:  t.Framer(),
			Handler: jsonrpc.HandlerFunc(cs.handle),
			Logger:  c.opts.Logger,
		}, nil
	}))
	if err != nil {
		return nil, fmt.Errorf("mcp: dial: %w", err)
	}
	_ = conn

	var result InitializeResult
	initParams := &InitializeParams{
		ProtocolVersion: latestProtocolVersion,
		ClientInfo:      Implementation{Name: c.name, Version: c.version},
	}
	if err := cs.conn.Call(ctx, methodInitialize, initParams, &result); err != nil {
		cs.conn.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	if err := cs.conn.Notify(ctx, methodInitialized, struct{}{}); err != nil {
		cs.conn.Close()
		return nil, fmt.Errorf("mcp: notify initialized: %w", err)
	}
	cs.Result = &result
	return cs, nil
}

func (cs *ClientSession) Close() error { return cs.conn.Close() }
func (cs *ClientSession) Wait() error  { return cs.conn.Wait() }

// handle answers server-to-client requests (ping and roots/list) and passes
// the resources/updated and tools/list_changed notifications to the
// ClientOptions handlers.
func (cs *ClientSession) handle(ctx context.Context, req *jsonrpc.Request) (any, error) {
	switch req.Method {
	case methodPing:
		return &emptyResult{}, nil
	case methodListRoots:
		return &ListRootsResult{Roots: rootsSlice(cs.client.roots)}, nil
	case methodResourceUpdated:
		var p ResourceUpdatedParams
		if err := json.Unmarshal(req.Params, &p); err == nil && cs.client.opts.ResourceUpdatedHandler != nil {
			cs.client.opts.ResourceUpdatedHandler(ctx, p.URI)
		}
		return nil, nil
	case methodToolsListChanged:
		if cs.client.opts.ToolsListChangedHandler != nil {
			cs.client.opts.ToolsListChangedHandler(ctx)
		}
		return nil, nil
	default:
		return nil, jsonrpc.ErrNotHandled
	}
}

func rootsSlice(s *featureSet[*Root]) []*Root {
	var out []*Root
	for r := range s.all() {
		out = append(out, r)
	}
	return out
}

// Ping sends a liveness check to the server.
func (cs *ClientSession) Ping(ctx context.Context) error {
	return cs.conn.Call(ctx, methodPing, &PingParams{}, &emptyResult{})
}

func (cs *ClientSession) ListTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error) {
	var result ListToolsResult
	if err := cs.conn.Call(ctx, methodListTools, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (cs *ClientSession) ListPrompts(ctx context.Context, params *ListPromptsParams) (*ListPromptsResult, error) {
	var result ListPromptsResult
	if err := cs.conn.Call(ctx, methodListPrompts, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (cs *ClientSession) GetPrompt(ctx context.Context, params *GetPromptParams) (*GetPromptResult, error) {
	var result GetPromptResult
	if err := cs.conn.Call(ctx, methodGetPrompt, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (cs *ClientSession) ListResources(ctx context.Context, params *ListResourcesParams) (*ListResourcesResult, error) {
	var result ListResourcesResult
	if err := cs.conn.Call(ctx, methodListResources, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (cs *ClientSession) ReadResource(ctx context.Context, params *ReadResourceParams) (*ReadResourceResult, error) {
	var result ReadResourceResult
	if err := cs.conn.Call(ctx, methodReadResource, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (cs *ClientSession) Subscribe(ctx context.Context, uri string) error {
	return cs.conn.Call(ctx, methodSubscribe, &SubscribeParams{URI: uri}, &emptyResult{})
}

func (cs *ClientSession) Unsubscribe(ctx context.Context, uri string) error {
	return cs.conn.Call(ctx, methodUnsubscribe, &UnsubscribeParams{URI: uri}, &emptyResult{})
}

func (cs *ClientSession) SetLevel(ctx context.Context, level LoggingLevel) error {
	return cs.conn.Call(ctx, methodSetLevel, &SetLevelParams{Level: level}, &emptyResult{})
}

// CallToolOptions carries the optional request fields of tools/call beyond
// name and arguments.
type CallToolOptions struct {
	ProgressToken ProgressToken
}

// CallTool invokes a tool by name with the given arguments.
func (cs *ClientSession) CallTool(ctx context.Context, name string, args map[string]any, opts *CallToolOptions) (*CallToolResult, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling arguments: %w", err)
	}
	params := &CallToolParams{Name: name, Arguments: json.RawMessage(data)}
	if opts != nil && opts.ProgressToken.IsValid() {
		params.Meta = &Meta{ProgressToken: opts.ProgressToken}
	}
	var result CallToolResult
	if err := cs.conn.Call(ctx, methodCallTool, params, &result); err != nil {
		return nil, fmt.Errorf("mcp: calling tool %q: %w", name, err)
	}
	return &result, nil
}
