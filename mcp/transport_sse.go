// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// This file implements the HTTP+SSE transport binding of the 2024-11-05
// spec revision (§6.2): a GET request opens a long-lived event stream
// carrying server-to-client messages, and the server announces a sibling
// POST endpoint for client-to-server messages via the first "endpoint"
// event.

// sseEvent is one server-sent event.
type sseEvent struct {
	name string
	data []byte
}

func writeSSEEvent(w io.Writer, evt sseEvent) error {
	var b bytes.Buffer
	if evt.name != "" {
		fmt.Fprintf(&b, "event: %s\n", evt.name)
	}
	fmt.Fprintf(&b, "data: %s\n\n", evt.data)
	_, err := w.Write(b.Bytes())
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return err
}

// messageStream is implemented directly by the two session types below;
// it lets a jsonrpc.Framer for this binding skip byte-stream framing
// entirely and operate at message granularity, since SSE already delimits
// messages as discrete events.
type messageStream interface {
	ReadMessage(ctx context.Context) (jsonrpc.Message, error)
	WriteMessage(ctx context.Context, msg jsonrpc.Message) error
}

type passthroughFramer struct{}

func (passthroughFramer) Reader(r io.Reader) jsonrpc.Reader {
	ms := r.(messageStream)
	return readerFunc(ms.ReadMessage)
}

func (passthroughFramer) Writer(w io.Writer) jsonrpc.Writer {
	ms := w.(messageStream)
	return writerFunc(ms.WriteMessage)
}

type readerFunc func(context.Context) (jsonrpc.Message, error)

func (f readerFunc) Read(ctx context.Context) (jsonrpc.Message, error) { return f(ctx) }

type writerFunc func(context.Context, jsonrpc.Message) error

func (f writerFunc) Write(ctx context.Context, msg jsonrpc.Message) error { return f(ctx, msg) }

// SSEHandler is an http.Handler implementing the server side of the
// HTTP+SSE binding, routed with gorilla/mux so it composes with the rest
// of a host's HTTP surface (metrics, health checks, the Streamable-HTTP
// binding) on one mux.Router.
type SSEHandler struct {
	server *Server

	mu       sync.Mutex
	sessions map[string]*sseSession
}

// NewSSEHandler returns a handler that serves server over HTTP+SSE.
func NewSSEHandler(server *Server) *SSEHandler {
	return &SSEHandler{server: server, sessions: make(map[string]*sseSession)}
}

// Register mounts the handler's GET (event stream) and POST (message
// submission) routes onto r at prefix.
func (h *SSEHandler) Register(r *mux.Router, prefix string) {
	r.HandleFunc(prefix, h.serveGET).Methods(http.MethodGet)
	r.HandleFunc(prefix, h.servePOST).Methods(http.MethodPost)
}

func (h *SSEHandler) servePOST(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("sessionid")
	if sessionID == "" {
		http.Error(w, "sessionid must be provided", http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	session := h.sessions[sessionID]
	h.mu.Unlock()
	if session == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		http.Error(w, "failed to parse body", http.StatusBadRequest)
		return
	}
	select {
	case session.incoming <- msg:
		w.WriteHeader(http.StatusAccepted)
	case <-session.done:
		http.Error(w, "session closed", http.StatusGone)
	}
}

func (h *SSEHandler) serveGET(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := uuid.NewString()
	session := &sseSession{
		w:        w,
		incoming: make(chan jsonrpc.Message, 256),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.sessions[sessionID] = session
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
	}()

	sess, err := h.server.Connect(req.Context(), &fixedTransport{rwc: session, framer: passthroughFramer{}})
	if err != nil {
		http.Error(w, "connection failed", http.StatusInternalServerError)
		return
	}
	defer sess.Close()

	endpoint, err := req.URL.Parse("?sessionid=" + sessionID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := writeSSEEvent(w, sseEvent{name: "endpoint", data: []byte(endpoint.RequestURI())}); err != nil {
		return
	}

	select {
	case <-req.Context().Done():
	case <-session.done:
	}
}

// sseSession is the server-side per-client stream: a hanging GET response
// body to write to, and a channel of messages POSTed by the client.
type sseSession struct {
	incoming chan jsonrpc.Message

	mu     sync.Mutex
	w      io.Writer
	isDone bool
	done   chan struct{}
}

func (s *sseSession) ReadMessage(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-s.incoming:
		return msg, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *sseSession) WriteMessage(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isDone {
		return io.EOF
	}
	return writeSSEEvent(s.w, sseEvent{name: "message", data: data})
}

func (s *sseSession) Read(p []byte) (int, error)  { return 0, errors.New("mcp: use ReadMessage") }
func (s *sseSession) Write(p []byte) (int, error) { return 0, errors.New("mcp: use WriteMessage") }

func (s *sseSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isDone {
		s.isDone = true
		close(s.done)
	}
	return nil
}

// SSEClientTransport is the client side of the HTTP+SSE binding.
type SSEClientTransport struct {
	endpoint *url.URL
}

func NewSSEClientTransport(rawURL string) (*SSEClientTransport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &SSEClientTransport{endpoint: u}, nil
}

func (c *SSEClientTransport) Framer() jsonrpc.Framer { return passthroughFramer{} }

func (c *SSEClientTransport) Connect(ctx context.Context) (io.ReadWriteCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	nextEvent := sseEventScanner(scanner)

	evt, err := nextEvent()
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("mcp: reading endpoint event: %w", err)
	}
	if evt.name != "endpoint" {
		resp.Body.Close()
		return nil, fmt.Errorf("mcp: first event is %q, want endpoint", evt.name)
	}
	msgEndpoint, err := c.endpoint.Parse(string(evt.data))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("mcp: invalid endpoint event: %w", err)
	}

	s := &sseClientStream{
		msgEndpoint: msgEndpoint,
		incoming:    make(chan []byte, 100),
		body:        resp.Body,
		done:        make(chan struct{}),
	}
	go func() {
		for {
			evt, err := nextEvent()
			if err != nil {
				close(s.incoming)
				return
			}
			if evt.name == "message" {
				select {
				case s.incoming <- evt.data:
				case <-s.done:
					return
				}
			}
		}
	}()
	return s, nil
}

// sseEventScanner adapts a line scanner into a sequence of SSE events, per
// https://developer.mozilla.org/en-US/docs/Web/API/Server-sent_events/Using_server-sent_events#examples.
func sseEventScanner(scanner *bufio.Scanner) func() (sseEvent, error) {
	return func() (sseEvent, error) {
		var evt sseEvent
		var lastWasData bool
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 && (evt.name != "" || len(evt.data) > 0) {
				return evt, nil
			}
			before, after, found := bytes.Cut(line, []byte{':'})
			if !found {
				continue
			}
			switch {
			case bytes.Equal(before, []byte("event")):
				evt.name = strings.TrimSpace(string(after))
			case bytes.Equal(before, []byte("data")):
				data := bytes.TrimSpace(after)
				if lastWasData {
					evt.data = slices.Concat(evt.data, []byte{'\n'}, data)
				} else {
					evt.data = data
				}
				lastWasData = true
			}
		}
		return evt, io.EOF
	}
}

type sseClientStream struct {
	msgEndpoint *url.URL
	incoming    chan []byte

	mu       sync.Mutex
	body     io.ReadCloser
	isDone   bool
	done     chan struct{}
	closeErr error
}

func (c *sseClientStream) ReadMessage(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-c.incoming:
		if !ok {
			return nil, io.EOF
		}
		return jsonrpc.DecodeMessage(data)
	case <-c.done:
		if c.closeErr != nil {
			return nil, c.closeErr
		}
		return nil, io.EOF
	}
}

func (c *sseClientStream) WriteMessage(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.msgEndpoint.String(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mcp: posting message: %s", resp.Status)
	}
	return nil
}

func (c *sseClientStream) Read(p []byte) (int, error)  { return 0, errors.New("mcp: use ReadMessage") }
func (c *sseClientStream) Write(p []byte) (int, error) { return 0, errors.New("mcp: use WriteMessage") }

func (c *sseClientStream) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isDone {
		c.isDone = true
		c.closeErr = c.body.Close()
		close(c.done)
	}
	return c.closeErr
}
