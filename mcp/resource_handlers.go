// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

func (s *ServerSession) handleListResources(ctx context.Context, req *jsonrpc.Request) (*ListResourcesResult, error) {
	params, err := unmarshalParams[ListResourcesParams](req.Params)
	if err != nil {
		return nil, err
	}
	after, err := decodeCursor(params.Cursor)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "%v", err)
	}
	resources, next := s.server.Resources.set.listPage(after, pageSize)
	out := make([]*Resource, 0, len(resources))
	for _, r := range resources {
		if r.Resource != nil {
			out = append(out, r.Resource)
		}
	}
	return &ListResourcesResult{Resources: out, NextCursor: encodeCursor(next)}, nil
}

func (s *ServerSession) handleReadResource(ctx context.Context, req *jsonrpc.Request) (*ReadResourceResult, error) {
	params, err := unmarshalParams[ReadResourceParams](req.Params)
	if err != nil {
		return nil, err
	}
	res, ok := s.server.Resources.match(params.URI)
	if !ok {
		return nil, ResourceNotFoundError(params.URI)
	}
	return res.Handler(ctx, params.URI)
}

func (s *ServerSession) handleSubscribe(ctx context.Context, req *jsonrpc.Request) (*emptyResult, error) {
	params, err := unmarshalParams[SubscribeParams](req.Params)
	if err != nil {
		return nil, err
	}
	if _, ok := s.server.Resources.match(params.URI); !ok {
		return nil, ResourceNotFoundError(params.URI)
	}
	s.subscribe(params.URI)
	return &emptyResult{}, nil
}

func (s *ServerSession) handleUnsubscribe(ctx context.Context, req *jsonrpc.Request) (*emptyResult, error) {
	params, err := unmarshalParams[UnsubscribeParams](req.Params)
	if err != nil {
		return nil, err
	}
	s.unsubscribe(params.URI)
	return &emptyResult{}, nil
}
