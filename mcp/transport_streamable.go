// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// This file implements the Streamable-HTTP binding (§6.3): a single
// endpoint handling POST (send a message, get its response as a JSON body;
// a POST is never answered with an SSE stream), GET (open a standalone
// stream for server-initiated messages),
// and DELETE (explicit session termination), correlated by the
// Mcp-Session-Id header, with a bounded per-session event log supporting
// resumption via Last-Event-ID.

// StreamableHTTPHandler serves one or more MCP sessions over the
// Streamable-HTTP binding, routed with gorilla/mux.
type StreamableHTTPHandler struct {
	server *Server

	// AllowedOrigins, if non-empty, restricts the Origin header accepted on
	// requests, mitigating DNS-rebinding attacks against a locally bound
	// server (§6.3 security considerations). An empty Origin (non-browser
	// clients) is always allowed.
	AllowedOrigins []string

	mu       sync.Mutex
	sessions map[string]*streamableSession
}

// NewStreamableHTTPHandler returns a handler serving server.
func NewStreamableHTTPHandler(server *Server) *StreamableHTTPHandler {
	return &StreamableHTTPHandler{server: server, sessions: make(map[string]*streamableSession)}
}

// Register mounts the handler at path on r.
func (h *StreamableHTTPHandler) Register(r *mux.Router, path string) {
	r.HandleFunc(path, h.ServeHTTP).Methods(http.MethodPost, http.MethodGet, http.MethodDelete)
}

func (h *StreamableHTTPHandler) originAllowed(origin string) bool {
	if origin == "" || len(h.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func (h *StreamableHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !h.originAllowed(req.Header.Get("Origin")) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	sessionID := req.Header.Get("Mcp-Session-Id")
	h.mu.Lock()
	sess := h.sessions[sessionID]
	h.mu.Unlock()

	switch req.Method {
	case http.MethodDelete:
		if sess == nil {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
		sess.Close()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodGet:
		if sess == nil {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		h.serveStream(w, req, sess, req.Header.Get("Last-Event-ID"))

	case http.MethodPost:
		h.servePost(w, req, sess, sessionID)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StreamableHTTPHandler) servePost(w http.ResponseWriter, req *http.Request, sess *streamableSession, sessionID string) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		http.Error(w, "failed to parse body", http.StatusBadRequest)
		return
	}

	if sess == nil {
		if req2, ok := msg.(*jsonrpc.Request); !ok || req2.Method != methodInitialize {
			http.Error(w, "session required", http.StatusBadRequest)
			return
		}
		sessionID = uuid.NewString()
		sess = newStreamableSession(sessionID)
		ss, err := h.server.Connect(req.Context(), &fixedTransport{rwc: sess, framer: passthroughFramer{}})
		if err != nil {
			http.Error(w, "connection failed", http.StatusInternalServerError)
			return
		}
		sess.session = ss
		ss.SetStreamCloser(sess.closeStreams)
		h.mu.Lock()
		h.sessions[sessionID] = sess
		h.mu.Unlock()
		w.Header().Set("Mcp-Session-Id", sessionID)
	}

	reply := sess.submit(req.Context(), msg)
	if reply == nil {
		// Notification: no response body, per JSON-RPC.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	data, err := jsonrpc.EncodeMessage(reply)
	if err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Mcp-Session-Id", sessionID)
	w.Write(data)
}

func (h *StreamableHTTPHandler) serveStream(w http.ResponseWriter, req *http.Request, sess *streamableSession, lastEventID string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	replay, from := sess.eventsAfter(lastEventID)
	for _, evt := range replay {
		writeSSEEventWithID(w, evt)
	}
	if flusher != nil {
		flusher.Flush()
	}

	ch, unsub := sess.subscribeOut(from)
	defer unsub()
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEventWithID(w, evt)
			if flusher != nil {
				flusher.Flush()
			}
		case <-req.Context().Done():
			return
		case <-sess.done:
			return
		}
	}
}

type streamableEvent struct {
	id   int64
	data []byte
}

func writeSSEEventWithID(w io.Writer, evt streamableEvent) {
	fmt.Fprintf(w, "id: %d\nevent: message\ndata: %s\n\n", evt.id, evt.data)
}

// streamableSession holds one Streamable-HTTP session's message queues and
// bounded replay log. It implements messageStream so it plugs into
// passthroughFramer exactly like an sseSession does.
type streamableSession struct {
	id      string
	session *ServerSession

	mu       sync.Mutex
	nextEvt  int64
	log      []streamableEvent // bounded ring, oldest evicted once maxStreamableLog is exceeded
	out      map[chan streamableEvent]int64
	incoming chan jsonrpc.Message
	pending  map[jsonrpc.ID]chan *jsonrpc.Response
	isDone   bool
	done     chan struct{}
}

const maxStreamableLog = 1000

func newStreamableSession(id string) *streamableSession {
	return &streamableSession{
		id:       id,
		out:      make(map[chan streamableEvent]int64),
		incoming: make(chan jsonrpc.Message, 256),
		pending:  make(map[jsonrpc.ID]chan *jsonrpc.Response),
		done:     make(chan struct{}),
	}
}

// submit hands a decoded inbound message to the session's connection and,
// for a call, blocks for the matching response so the HTTP POST can return
// it synchronously. Returns nil for notifications.
func (s *streamableSession) submit(ctx context.Context, msg jsonrpc.Message) *jsonrpc.Response {
	req, ok := msg.(*jsonrpc.Request)
	if !ok || !req.IsCall() {
		s.deliverIncoming(ctx, msg)
		return nil
	}
	wait := make(chan *jsonrpc.Response, 1)
	s.mu.Lock()
	s.pending[req.ID] = wait
	s.mu.Unlock()
	s.deliverIncoming(ctx, msg)
	select {
	case resp := <-wait:
		return resp
	case <-ctx.Done():
		return nil
	case <-s.done:
		return nil
	}
}

func (s *streamableSession) deliverIncoming(ctx context.Context, msg jsonrpc.Message) {
	select {
	case s.incoming <- msg:
	case <-ctx.Done():
	case <-s.done:
	}
}

func (s *streamableSession) ReadMessage(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-s.incoming:
		return msg, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WriteMessage routes a response to a pending POST back synchronously,
// without logging or streaming it; every other outbound message is
// recorded in the replay log and sent to the open event streams.
func (s *streamableSession) WriteMessage(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}

	if resp, ok := msg.(*jsonrpc.Response); ok {
		s.mu.Lock()
		wait, ok := s.pending[resp.ID]
		if ok {
			delete(s.pending, resp.ID)
		}
		s.mu.Unlock()
		if ok {
			wait <- resp
			return nil
		}
	}

	s.mu.Lock()
	s.nextEvt++
	evt := streamableEvent{id: s.nextEvt, data: data}
	s.log = append(s.log, evt)
	if len(s.log) > maxStreamableLog {
		s.log = s.log[len(s.log)-maxStreamableLog:]
	}
	subs := make([]chan streamableEvent, 0, len(s.out))
	for ch := range s.out {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// eventsAfter returns the buffered events after the one named by
// lastEventID (parsed as the decimal id written by writeSSEEventWithID),
// for GET-stream resumption (§6.3).
func (s *streamableSession) eventsAfter(lastEventID string) (events []streamableEvent, from int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	after := int64(0)
	if lastEventID != "" {
		if n, err := strconv.ParseInt(lastEventID, 10, 64); err == nil {
			after = n
		}
	}
	for _, evt := range s.log {
		if evt.id > after {
			events = append(events, evt)
		}
	}
	return events, s.nextEvt
}

func (s *streamableSession) subscribeOut(from int64) (<-chan streamableEvent, func()) {
	ch := make(chan streamableEvent, 64)
	s.mu.Lock()
	s.out[ch] = from
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.out, ch)
		s.mu.Unlock()
	}
}

func (s *streamableSession) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("mcp: use ReadMessage")
}
func (s *streamableSession) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("mcp: use WriteMessage")
}

// closeStreams ends every open GET stream for this session without
// touching pending POSTs or the replay log, so an EventSource client
// reconnects and replays from where it left off (§6, enablePolling). The
// session itself stays alive; subscribeOut just hands out fresh channels
// to whatever reconnects.
func (s *streamableSession) closeStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.out {
		close(ch)
		delete(s.out, ch)
	}
}

func (s *streamableSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isDone {
		s.isDone = true
		close(s.done)
		for ch := range s.out {
			close(ch)
		}
	}
	return nil
}
