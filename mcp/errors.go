// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"errors"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// Additional error codes in the implementation-defined range
// [-32099, -32000], per spec §4.1.
const (
	CodeResourceNotFound  int64 = -32002
	CodeUnsupportedMethod int64 = -32001
	CodeInvalidSessionID  int64 = -32010
	CodeOriginNotAllowed  int64 = -32011
)

// ResourceNotFoundError builds the JSON-RPC error returned when a
// resources/read or resources/subscribe request names an unknown URI.
func ResourceNotFoundError(uri string) error {
	return jsonrpc.NewError(CodeResourceNotFound, "resource %q not found", uri)
}

// Sentinel errors surfaced by Session, Client, and the transport bindings.
var (
	// ErrSessionClosed is returned by session operations attempted after
	// the session has transitioned to Closing or Closed.
	ErrSessionClosed = errors.New("mcp: session closed")
	// ErrTransportClosed is surfaced when the peer closes the underlying
	// stream, mapping the spec's TransportClosed condition (§4.2, §7).
	ErrTransportClosed = errors.New("mcp: transport closed")
	// ErrCancelled completes an outbound request's future when it (or the
	// session) was cancelled before a response arrived (§4.3, §7).
	ErrCancelled = errors.New("mcp: request cancelled")
	// ErrTimedOut completes an outbound request's future when its deadline
	// elapsed before a response arrived (§4.3, §7).
	ErrTimedOut = errors.New("mcp: request timed out")
	// ErrNotReady is returned for a non-initialize, non-ping request
	// received before the session reaches Ready (§4.3 state machine).
	ErrNotReady = jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "session is not ready")
)
