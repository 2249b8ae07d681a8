// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// SessionState is the lifecycle of one connected peer (§4.5).
type SessionState int32

const (
	StateCreated SessionState = iota
	StateInitializing
	StateReady
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ServerSession is one client's view of a Server: the connection, its
// negotiated protocol version and capabilities, and the bookkeeping a
// single peer needs (pending progress, resource subscriptions, log level).
type ServerSession struct {
	id     string
	server *Server
	conn   *jsonrpc.Connection
	log    *slog.Logger

	state atomic.Int32

	mu              sync.Mutex
	clientInfo      Implementation
	clientCaps      ClientCapabilities
	protocolVersion string
	logLevel        LoggingLevel
	subscriptions   map[string]bool
	tasks           *taskStore
	streamCloser    func()
}

func newServerSession(server *Server, conn *jsonrpc.Connection, log *slog.Logger) *ServerSession {
	return &ServerSession{
		id:            uuid.NewString(),
		server:        server,
		conn:          conn,
		log:           log,
		logLevel:      LevelWarning,
		subscriptions: make(map[string]bool),
		tasks:         newTaskStore(),
	}
}

// ID returns a value stable for the lifetime of the session, suitable as an
// Mcp-Session-Id header for the Streamable-HTTP binding (§6.3).
func (s *ServerSession) ID() string { return s.id }

func (s *ServerSession) State() SessionState { return SessionState(s.state.Load()) }

func (s *ServerSession) setState(state SessionState) { s.state.Store(int32(state)) }

// casState performs the lifecycle transition from->to only if the session
// is currently in from, returning whether it did.
func (s *ServerSession) casState(from, to SessionState) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

func (s *ServerSession) subscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[uri] = true
}

func (s *ServerSession) unsubscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, uri)
}

func (s *ServerSession) isSubscribed(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscriptions[uri]
}

func (s *ServerSession) setLogLevel(l LoggingLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLevel = l
}

func (s *ServerSession) currentLogLevel() LoggingLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logLevel
}

// SetStreamCloser installs the hook deferredDeliveryFilter uses to force a
// reconnect after deferring a call-tool result (§6). Only transports that
// expose a standalone, resumable stream (Streamable-HTTP) call this; on
// others forceReconnect is a no-op, which just means there's no live
// stream for the client to be kicked off of.
func (s *ServerSession) SetStreamCloser(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamCloser = f
}

func (s *ServerSession) forceReconnect() {
	s.mu.Lock()
	f := s.streamCloser
	s.mu.Unlock()
	if f != nil {
		f()
	}
}

// Notify sends a notification to the client over this session's connection.
func (s *ServerSession) Notify(ctx context.Context, method string, params any) error {
	return s.conn.Notify(ctx, method, params)
}

// Call issues a server-to-client request (e.g. roots/list) and decodes the
// result into v.
func (s *ServerSession) Call(ctx context.Context, method string, params, v any) error {
	return s.conn.Call(ctx, method, params, v)
}

// Close terminates the underlying connection. It does not wait for
// in-flight handlers to finish; use Wait for that.
func (s *ServerSession) Close() error {
	s.setState(StateClosed)
	return s.conn.Close()
}

// Wait blocks until the session's connection has finished processing all
// outstanding work and the peer has disconnected.
func (s *ServerSession) Wait() error {
	return s.conn.Wait()
}

// handle implements jsonrpc.Handler: it is the single entry point for every
// inbound request and notification on this session, enforcing the §4.5
// state machine before dispatching to the method table.
func (s *ServerSession) handle(ctx context.Context, req *jsonrpc.Request) (any, error) {
	if err := s.checkState(req.Method); err != nil {
		return nil, err
	}
	switch req.Method {
	case methodInitialize:
		return s.handleInitialize(ctx, req)
	case methodInitialized:
		return nil, s.handleInitialized(ctx, req)
	case methodPing:
		return &emptyResult{}, nil
	case methodListTools:
		return s.handleListTools(ctx, req)
	case methodCallTool:
		return s.handleCallTool(ctx, req)
	case methodListPrompts:
		return s.handleListPrompts(ctx, req)
	case methodGetPrompt:
		return s.handleGetPrompt(ctx, req)
	case methodListResources:
		return s.handleListResources(ctx, req)
	case methodReadResource:
		return s.handleReadResource(ctx, req)
	case methodSubscribe:
		return s.handleSubscribe(ctx, req)
	case methodUnsubscribe:
		return s.handleUnsubscribe(ctx, req)
	case methodSetLevel:
		return s.handleSetLevel(ctx, req)
	case methodCancelled:
		return nil, s.handleCancelled(ctx, req)
	case methodProgress:
		return nil, s.handleProgressNotification(ctx, req)
	default:
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "method %q not found", req.Method)
	}
}

// checkState enforces that only initialize, ping, and notifications/cancelled
// are accepted before the session reaches Ready (§4.5);
// notifications/initialized is accepted in Initializing since it's the
// transition that completes the handshake.
func (s *ServerSession) checkState(method string) error {
	state := s.State()
	switch method {
	case methodInitialize:
		if state != StateCreated {
			return jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "initialize already performed")
		}
		return nil
	case methodInitialized:
		if state != StateInitializing {
			return jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "unexpected notifications/initialized")
		}
		return nil
	case methodPing, methodCancelled:
		return nil
	default:
		if state != StateReady {
			return ErrNotReady
		}
		return nil
	}
}

func unmarshalParams[T any](raw json.RawMessage) (*T, error) {
	var p T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid params: %v", err)
		}
	}
	return &p, nil
}

func (s *ServerSession) handleInitialize(ctx context.Context, req *jsonrpc.Request) (*InitializeResult, error) {
	params, err := unmarshalParams[InitializeParams](req.Params)
	if err != nil {
		return nil, err
	}
	if params.Meta != nil && params.Meta.ProgressToken.IsValid() {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "initialize must not carry a progress token")
	}
	version, ok := negotiateVersion(params.ProtocolVersion)
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "unsupported protocol version %q", params.ProtocolVersion)
	}
	s.mu.Lock()
	s.clientInfo = params.ClientInfo
	s.clientCaps = params.Capabilities
	s.protocolVersion = version
	s.mu.Unlock()
	s.setState(StateInitializing)
	return &InitializeResult{
		ProtocolVersion: version,
		ServerInfo:      s.server.info,
		Capabilities:    s.server.capabilities(),
		Instructions:    s.server.opts.Instructions,
	}, nil
}

func (s *ServerSession) handleInitialized(ctx context.Context, req *jsonrpc.Request) error {
	if !s.casState(StateInitializing, StateReady) {
		return jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "unexpected notifications/initialized")
	}
	if s.server.opts.InitializedHandler != nil {
		s.server.opts.InitializedHandler(ctx, s)
	}
	return nil
}

func (s *ServerSession) handleCancelled(ctx context.Context, req *jsonrpc.Request) error {
	params, err := unmarshalParams[CancelledParams](req.Params)
	if err != nil {
		return nil // malformed cancellation notifications are ignored, not errors
	}
	id, err := jsonrpcIDFromAny(params.RequestID)
	if err != nil {
		s.log.DebugContext(ctx, "cancelled notification with unparseable id", "requestId", params.RequestID)
		return nil
	}
	s.conn.Cancel(id)
	return nil
}

func jsonrpcIDFromAny(v any) (jsonrpc.ID, error) {
	switch v := v.(type) {
	case string:
		return jsonrpc.StringID(v), nil
	case float64:
		return jsonrpc.Int64ID(int64(v)), nil
	case int64:
		return jsonrpc.Int64ID(v), nil
	default:
		return jsonrpc.ID{}, fmt.Errorf("mcp: unsupported request id type %T", v)
	}
}
