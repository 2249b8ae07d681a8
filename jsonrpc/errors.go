// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     int64 = -32700
	CodeInvalidRequest int64 = -32600
	CodeMethodNotFound int64 = -32601
	CodeInvalidParams  int64 = -32602
	CodeInternalError  int64 = -32603
)

// WireError is the `error` member of a JSON-RPC response. It implements
// error so that callers can use errors.As to recover the code and data of a
// protocol-level failure.
type WireError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *WireError) Error() string {
	return fmt.Sprintf("jsonrpc: code %d: %s", e.Code, e.Message)
}

// NewError builds a *WireError with the given code and a formatted message.
func NewError(code int64, format string, args ...any) *WireError {
	return &WireError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// toWireError coerces an arbitrary error into a *WireError, preserving the
// code of a wrapped WireError if one is found, mapping ErrNotHandled to
// CodeMethodNotFound, and defaulting to CodeInternalError otherwise.
func toWireError(err error) *WireError {
	if err == nil {
		return nil
	}
	var we *WireError
	if errors.As(err, &we) {
		return we
	}
	if errors.Is(err, ErrNotHandled) {
		return &WireError{Code: CodeMethodNotFound, Message: err.Error()}
	}
	return &WireError{Code: CodeInternalError, Message: err.Error()}
}

// Sentinel errors returned by Connection methods.
var (
	// ErrParse indicates the peer sent data that could not be decoded as a
	// JSON-RPC message.
	ErrParse = errors.New("jsonrpc: parse error")
	// ErrInvalidRequest indicates a structurally invalid request (e.g. a
	// response-shaped message with no method and an invalid id).
	ErrInvalidRequest = errors.New("jsonrpc: invalid request")
	// ErrClosed is returned by Call/Notify once the connection has been
	// closed, and completes every still-pending Call.
	ErrClosed = errors.New("jsonrpc: connection closed")
	// ErrNotHandled is returned by a Handler that declines to handle a
	// given method; the Connection reports it to the peer as MethodNotFound.
	ErrNotHandled = errors.New("jsonrpc: method not handled")
)
