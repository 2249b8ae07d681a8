// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	// Instructions are returned to clients in InitializeResult, describing
	// how to use the server's tools, prompts, and resources.
	Instructions string
	// InitializedHandler, if set, runs when a session completes the
	// handshake (notifications/initialized).
	InitializedHandler func(ctx context.Context, session *ServerSession)
	// ToolTimeout bounds how long a tool handler may run before the
	// invocation pipeline cancels it and returns a CallToolResult with
	// IsError set (§4.3). Zero means no default timeout.
	ToolTimeout time.Duration
	// Logger receives session lifecycle and dispatch diagnostics. Defaults
	// to slog.Default().
	Logger *slog.Logger
	// Metrics receives counters for requests, tool calls, and errors.
	// Defaults to a no-op recorder.
	Metrics MetricsRecorder
	// EnableTasks turns on the §6 task store collaborator: a filter may
	// call EnablePolling on a call-tool request to defer its result, and
	// tasks/get, tasks/cancel, and tasks/list become available to poll the
	// session's task store directly. When set, the server advertises the
	// tasks capability during initialize.
	EnableTasks bool
}

// Server hosts a catalog of tools, prompts, and resources and answers
// requests for one or more connected sessions (§4.4).
type Server struct {
	info Implementation
	opts ServerOptions

	Tools     *ToolCollection
	Prompts   *PromptCollection
	Resources *ResourceCollection

	mu       sync.Mutex
	sessions map[*ServerSession]bool
}

// NewServer creates a Server with empty tool, prompt, and resource
// collections; populate them with ToolCollection.AddTool and friends before
// accepting connections.
func NewServer(name, version string, opts *ServerOptions) *Server {
	if opts == nil {
		opts = &ServerOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	s := &Server{
		info:     Implementation{Name: name, Version: version},
		opts:     *opts,
		sessions: make(map[*ServerSession]bool),
	}
	s.Tools = newToolCollection(func() { s.notifyAll(methodToolsListChanged) })
	s.Prompts = newPromptCollection(func() { s.notifyAll(methodPromptsListChanged) })
	s.Resources = newResourceCollection(func() { s.notifyAll(methodResourcesListChanged) })
	return s
}

func (s *Server) capabilities() ServerCapabilities {
	caps := ServerCapabilities{
		Logging: map[string]any{},
	}
	if s.Tools.len() > 0 {
		caps.Tools = &ToolsCapability{ListChanged: true}
	}
	if s.Prompts.len() > 0 {
		caps.Prompts = &PromptsCapability{ListChanged: true}
	}
	if s.Resources.len() > 0 {
		caps.Resources = &ResourcesCapability{ListChanged: true, Subscribe: true}
	}
	if s.opts.EnableTasks {
		caps.Tasks = map[string]any{}
	}
	return caps
}

func (s *Server) notifyAll(method string) {
	s.mu.Lock()
	sessions := make([]*ServerSession, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, sess := range sessions {
		if sess.State() != StateReady {
			continue
		}
		if err := sess.Notify(ctx, method, nil); err != nil {
			s.opts.Logger.WarnContext(ctx, "notify failed", "method", method, "session", sess.ID(), "err", err)
		}
	}
}

// NotifyResourceUpdated fans a resources/updated notification out to every
// session subscribed to uri (§4.6, C7); unrelated sessions are untouched.
func (s *Server) NotifyResourceUpdated(ctx context.Context, uri string) {
	s.mu.Lock()
	sessions := make([]*ServerSession, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		if !sess.isSubscribed(uri) {
			continue
		}
		if err := sess.Notify(ctx, methodResourceUpdated, &ResourceUpdatedParams{URI: uri}); err != nil {
			s.opts.Logger.WarnContext(ctx, "resource update notify failed", "uri", uri, "session", sess.ID(), "err", err)
		}
	}
}

// Connect binds the server to a new peer reached through t, starting the
// session's read loop in the background. It returns the session as soon
// as the connection is dialed, so callers can track it; use
// ServerSession.Wait to block until the peer disconnects or
// ServerSession.Close is called.
func (s *Server) Connect(ctx context.Context, t Transport) (*ServerSession, error) {
	rwc, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect transport: %w", err)
	}
	var sess *ServerSession
	conn, err := jsonrpc.Dial(ctx, rwc, jsonrpc.BinderFunc(func(ctx context.Context, conn *jsonrpc.Connection) (jsonrpc.ConnectionOptions, error) {
		sess = newServerSession(s, conn, s.opts.Logger)
		var base jsonrpc.Handler = jsonrpc.HandlerFunc(sess.handle)
		filters := []RequestFilter{metricsFilter(s.opts.Metrics)}
		if s.opts.EnableTasks {
			base = tasksFilter(base, sess)
			filters = append(filters, deferredDeliveryFilter(sess))
		}
		handler := chainFilters(base, filters...)
		return jsonrpc.ConnectionOptions{
			Framer:  t.Framer(),
			Handler: handler,
			Logger:  s.opts.Logger,
			OnCancel: func(id jsonrpc.ID, timedOut bool) {
				reason := "context cancelled"
				if timedOut {
					reason = "deadline exceeded"
				}
				notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				sess.Notify(notifyCtx, methodCancelled, &CancelledParams{RequestID: id.Raw(), Reason: reason})
			},
		}, nil
	}))
	if err != nil {
		return nil, fmt.Errorf("mcp: dial: %w", err)
	}
	_ = conn
	s.mu.Lock()
	s.sessions[sess] = true
	s.mu.Unlock()
	s.opts.Metrics.SessionOpened()
	go func() {
		sess.Wait()
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		s.opts.Metrics.SessionClosed()
	}()
	return sess, nil
}

// Run accepts connections from t until ctx is cancelled, serving each on
// its own session. It is the long-running entry point used by a listening
// transport (HTTP+SSE, Streamable-HTTP); Connect is for transports that
// produce a single peer (stdio, subprocess, in-memory pipe).
func (s *Server) Run(ctx context.Context, t ListeningTransport) error {
	for {
		conn, err := t.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			if _, err := s.Connect(ctx, conn); err != nil {
				s.opts.Logger.ErrorContext(ctx, "session setup failed", "err", err)
			}
		}()
	}
}
