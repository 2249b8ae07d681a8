// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

func (s *ServerSession) handleListTools(ctx context.Context, req *jsonrpc.Request) (*ListToolsResult, error) {
	params, err := unmarshalParams[ListToolsParams](req.Params)
	if err != nil {
		return nil, err
	}
	after, err := decodeCursor(params.Cursor)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "%v", err)
	}
	tools, next := s.server.Tools.set.listPage(after, pageSize)
	out := make([]*Tool, len(tools))
	for i, t := range tools {
		out[i] = t.Tool
	}
	return &ListToolsResult{Tools: out, NextCursor: encodeCursor(next)}, nil
}

// handleCallTool runs the tools/call invocation pipeline (§4.4 step
// 3-6): bind arguments, build a scoped context carrying the effective
// timeout and progress sender, run the handler, and map panics or
// deadline overruns into a CallToolResult rather than a transport error
// whenever the tool itself is at fault.
func (s *ServerSession) handleCallTool(ctx context.Context, req *jsonrpc.Request) (result *CallToolResult, err error) {
	params, err := unmarshalParams[CallToolParams](req.Params)
	if err != nil {
		return nil, err
	}
	tool, ok := s.server.Tools.get(params.Name)
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "unknown tool %q", params.Name)
	}

	argsRaw, err := marshalArguments(params.Arguments)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid arguments: %v", err)
	}

	var progTok ProgressToken
	if params.Meta != nil {
		progTok = params.Meta.ProgressToken
	}
	ctx = withProgressSender(ctx, &progressSender{session: s, token: progTok})

	timeout := s.server.opts.ToolTimeout
	if tool.Timeout != nil && tool.Timeout.Enabled {
		timeout = time.Duration(tool.Timeout.Value)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result, err = s.runToolHandler(ctx, tool, argsRaw)
	timedOut := ctx.Err() == context.DeadlineExceeded
	s.server.opts.Metrics.ToolInvoked(tool.Tool.Name, time.Since(start), timedOut, err)

	if err != nil {
		if timedOut {
			return markTimeout(&CallToolResult{
				Content: []*Content{NewTextContent("tool timed out: " + err.Error())},
				IsError: true,
			}), nil
		}
		return nil, err
	}
	return result, nil
}

// runToolHandler isolates the handler invocation so a panicking tool
// surfaces as an error result instead of taking down the session.
func (s *ServerSession) runToolHandler(ctx context.Context, tool *ServerTool, args []byte) (result *CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "tool handler panicked", "tool", tool.Tool.Name, "panic", r)
			result = &CallToolResult{
				Content: []*Content{NewTextContent("tool panicked")},
				IsError: true,
			}
			err = nil
		}
	}()
	return tool.Handler(ctx, args)
}

func marshalArguments(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("{}"), nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
