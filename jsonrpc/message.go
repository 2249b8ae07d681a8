// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonrpc

import (
	"encoding/json"
	"fmt"
)

const wireVersion = "2.0"

// Message is the closed set of concrete JSON-RPC message shapes: *Request
// (a call or a notification, depending on whether ID is valid) and
// *Response. The marshal method is unexported so no other type can
// implement Message.
type Message interface {
	marshal(to *wireCombined)
}

// Request is an outgoing or incoming JSON-RPC call or notification. It is a
// notification if ID is the zero ID.
type Request struct {
	ID     ID
	Method string
	Params json.RawMessage
}

// IsCall reports whether the request expects a response.
func (r *Request) IsCall() bool { return r.ID.IsValid() }

func (r *Request) marshal(to *wireCombined) {
	to.ID = r.ID.value
	to.Method = r.Method
	to.Params = r.Params
}

// Response is a reply to a Request with the same ID. Exactly one of Result
// or Error is set, matching the request/response correlation invariant of
// JSON-RPC 2.0.
type Response struct {
	ID     ID
	Result json.RawMessage
	Error  error
}

func (r *Response) marshal(to *wireCombined) {
	to.ID = r.ID.value
	to.Result = r.Result
	to.Error = toWireError(r.Error)
}

// wireCombined is the union of every field that can appear in a Request or
// a Response. Decoding into this shape and then inspecting which fields are
// present is how DecodeMessage tells the two apart without a discriminant
// tag (JSON-RPC has none).
type wireCombined struct {
	VersionTag string          `json:"jsonrpc"`
	ID         any             `json:"id,omitempty"`
	Method     string          `json:"method,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      *WireError      `json:"error,omitempty"`
}

// NewNotification builds a *Request with no ID from method and params.
func NewNotification(method string, params any) (*Request, error) {
	p, err := marshalToRaw(params)
	return &Request{Method: method, Params: p}, err
}

// NewCall builds a *Request carrying id, for which a Response is expected.
func NewCall(id ID, method string, params any) (*Request, error) {
	p, err := marshalToRaw(params)
	return &Request{ID: id, Method: method, Params: p}, err
}

// NewResponse builds a *Response to id. If rerr is non-nil, result is
// ignored and the response carries an error instead.
func NewResponse(id ID, result any, rerr error) (*Response, error) {
	if rerr != nil {
		return &Response{ID: id, Error: rerr}, nil
	}
	r, err := marshalToRaw(result)
	return &Response{ID: id, Result: r}, err
}

// EncodeMessage renders msg as a single JSON object.
func EncodeMessage(msg Message) ([]byte, error) {
	var wire wireCombined
	wire.VersionTag = wireVersion
	msg.marshal(&wire)
	data, err := json.Marshal(&wire)
	if err != nil {
		return nil, fmt.Errorf("marshaling jsonrpc message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a single JSON object into either a *Request or a
// *Response, distinguishing the two by the presence of a "method" member —
// the JSON-RPC 2.0 spec itself provides no discriminant tag.
func DecodeMessage(data []byte) (Message, error) {
	var wire wireCombined
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	id, err := makeID(wire.ID)
	if err != nil {
		return nil, err
	}
	if wire.Method != "" {
		return &Request{ID: id, Method: wire.Method, Params: wire.Params}, nil
	}
	if !id.IsValid() {
		return nil, ErrInvalidRequest
	}
	resp := &Response{ID: id, Result: wire.Result}
	if wire.Error != nil {
		resp.Error = wire.Error
	}
	return resp, nil
}

func marshalToRaw(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
