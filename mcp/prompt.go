// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

func (s *ServerSession) handleListPrompts(ctx context.Context, req *jsonrpc.Request) (*ListPromptsResult, error) {
	params, err := unmarshalParams[ListPromptsParams](req.Params)
	if err != nil {
		return nil, err
	}
	after, err := decodeCursor(params.Cursor)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "%v", err)
	}
	prompts, next := s.server.Prompts.set.listPage(after, pageSize)
	out := make([]*Prompt, len(prompts))
	for i, p := range prompts {
		out[i] = p.Prompt
	}
	return &ListPromptsResult{Prompts: out, NextCursor: encodeCursor(next)}, nil
}

func (s *ServerSession) handleGetPrompt(ctx context.Context, req *jsonrpc.Request) (*GetPromptResult, error) {
	params, err := unmarshalParams[GetPromptParams](req.Params)
	if err != nil {
		return nil, err
	}
	prompt, ok := s.server.Prompts.get(params.Name)
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "unknown prompt %q", params.Name)
	}
	for _, a := range prompt.Prompt.Arguments {
		if a.Required {
			if _, ok := params.Arguments[a.Name]; !ok {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing required argument %q", a.Name)
			}
		}
	}
	return prompt.Handler(ctx, params.Arguments)
}
