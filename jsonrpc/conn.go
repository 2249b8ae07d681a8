// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Handler answers one inbound Request. For a notification (Request.IsCall
// == false) the returned values are ignored. A Handler that does not
// recognize the method should return ErrNotHandled so the Connection can
// report MethodNotFound.
type Handler interface {
	Handle(ctx context.Context, req *Request) (result any, err error)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (any, error) { return f(ctx, req) }

// Binder produces the options (handler, framer, hooks) for a freshly
// established Connection. It exists so that a listener accepting many
// connections, or a client dialing one, can share setup logic.
type Binder interface {
	Bind(ctx context.Context, conn *Connection) (ConnectionOptions, error)
}

// BinderFunc adapts a function to a Binder.
type BinderFunc func(ctx context.Context, conn *Connection) (ConnectionOptions, error)

func (f BinderFunc) Bind(ctx context.Context, conn *Connection) (ConnectionOptions, error) {
	return f(ctx, conn)
}

// ConnectionOptions configures a Connection.
type ConnectionOptions struct {
	Framer Framer
	// Handler answers inbound requests and notifications. May be nil for a
	// connection that only issues outbound calls.
	Handler Handler
	// OnInternalError is invoked (if non-nil) whenever the connection
	// encounters a fault it cannot attribute to a specific request, such as
	// a malformed frame. It must not block.
	OnInternalError func(error)
	// OnCancel is invoked when a local Call's context is cancelled or its
	// deadline expires before a Response arrives, so that a higher layer
	// (e.g. the MCP session) can notify the peer. It must not block.
	OnCancel func(id ID, timedOut bool)
	// Logger receives structured diagnostics about connection lifecycle
	// events. Defaults to slog.Default() if nil.
	Logger *slog.Logger
}

// pendingCall is the bookkeeping kept for one outbound Call awaiting a
// Response. It is the concrete realization of the PendingRequest entity.
type pendingCall struct {
	method string
	result chan *Response
}

// Connection is a bidirectional JSON-RPC 2.0 connection: a single
// demultiplexing read loop paired with a serialized writer. It correlates
// outbound Calls with their Responses, dispatches inbound Requests to a
// Handler on their own goroutines, and propagates cancellation in both
// directions. One Connection always sits underneath exactly one mcp
// session; Session never talks to a transport directly.
type Connection struct {
	writer  Writer
	closer  io.Closer
	h       Handler
	onErr   func(error)
	onCncl  func(id ID, timedOut bool)
	log     *slog.Logger
	writeMu sync.Mutex

	seq int64 // guarded by mu; low volume

	mu        sync.Mutex
	pending   map[ID]*pendingCall // locally-issued ids awaiting a Response
	handling  map[ID]context.CancelFunc
	cancelled map[ID]bool // inbound ids whose handling was explicitly cancelled
	closed    bool
	closeErr  error

	done chan struct{} // closed once the read loop has exited
	wg   sync.WaitGroup
}

// Dial opens rwc (typically the result of a transport's dial step) and
// returns a running Connection bound via binder.
func Dial(ctx context.Context, rwc io.ReadWriteCloser, binder Binder) (*Connection, error) {
	c := &Connection{
		closer:    rwc,
		pending:   make(map[ID]*pendingCall),
		handling:  make(map[ID]context.CancelFunc),
		cancelled: make(map[ID]bool),
		done:      make(chan struct{}),
	}
	opts, err := binder.Bind(ctx, c)
	if err != nil {
		rwc.Close()
		return nil, fmt.Errorf("binding connection: %w", err)
	}
	if opts.Framer == nil {
		rwc.Close()
		return nil, fmt.Errorf("binding connection: no Framer configured")
	}
	c.h = opts.Handler
	c.onErr = opts.OnInternalError
	c.onCncl = opts.OnCancel
	c.log = opts.Logger
	if c.log == nil {
		c.log = slog.Default()
	}
	reader := opts.Framer.Reader(rwc)
	c.writer = opts.Framer.Writer(rwc)
	go c.readLoop(reader)
	return c, nil
}

// Notify sends a fire-and-forget notification. It returns once the frame is
// written; no response is expected or possible.
func (c *Connection) Notify(ctx context.Context, method string, params any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	req, err := NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("marshaling notify params: %w", err)
	}
	return c.write(ctx, req)
}

// Call issues method with params and blocks until a Response arrives, ctx
// is done, or the connection closes. If result is non-nil the response
// result is unmarshaled into it. On ctx cancellation/deadline, the pending
// entry is dropped, then OnCancel (if configured) is invoked, and ctx.Err()
// is returned.
func (c *Connection) Call(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	id := Int64ID(c.seq)
	pc := &pendingCall{method: method, result: make(chan *Response, 1)}
	c.pending[id] = pc
	c.mu.Unlock()

	req, err := NewCall(id, method, params)
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("marshaling call params: %w", err)
	}
	if err := c.write(ctx, req); err != nil {
		c.dropPending(id)
		return err
	}

	select {
	case resp := <-pc.result:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshaling result of %s: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.dropPending(id)
		timedOut := ctx.Err() == context.DeadlineExceeded
		if c.onCncl != nil {
			c.onCncl(id, timedOut)
		}
		return ctx.Err()
	case <-c.done:
		c.dropPending(id)
		return ErrClosed
	}
}

func (c *Connection) dropPending(id ID) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Cancel cancels the context of the inbound request identified by id, if it
// is still being handled, and marks it so that the eventual handler return
// produces no Response (the spec's "silent cancel"). It is a no-op,
// returning false, for an unknown id.
func (c *Connection) Cancel(id ID) bool {
	c.mu.Lock()
	cancel, found := c.handling[id]
	if found {
		c.cancelled[id] = true
	}
	c.mu.Unlock()
	if found {
		cancel()
	}
	return found
}

// Close closes the underlying transport and fails every pending Call with
// ErrClosed. It does not wait for in-flight inbound handlers to finish; use
// Wait for that.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.closeErr
	}
	c.closed = true
	for _, pc := range c.pending {
		select {
		case pc.result <- &Response{Error: ErrClosed}:
		default:
		}
	}
	c.closeErr = c.closer.Close()
	err := c.closeErr
	c.mu.Unlock()
	return err
}

// Wait blocks until the read loop exits (the peer closed the stream, a
// fatal framing error occurred, or Close was called), and until every
// dispatched inbound handler goroutine has returned. It returns the error
// that ended the connection, or nil for a clean close.
func (c *Connection) Wait() error {
	<-c.done
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

func (c *Connection) write(ctx context.Context, msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writer.Write(ctx, msg)
}

// readLoop is the session's single demultiplexing task: it owns Reading,
// classifies each Message, and never blocks on handler execution.
func (c *Connection) readLoop(reader Reader) {
	defer close(c.done)
	ctx := context.Background()
	for {
		msg, err := reader.Read(ctx)
		if err != nil {
			c.finish(err)
			return
		}
		switch m := msg.(type) {
		case *Response:
			c.completeResponse(m)
		case *Request:
			if m.IsCall() {
				c.dispatchCall(ctx, m)
			} else {
				c.dispatchNotification(ctx, m)
			}
		default:
			c.reportInternalError(fmt.Errorf("unexpected message type %T", msg))
		}
	}
}

func (c *Connection) completeResponse(resp *Response) {
	c.mu.Lock()
	pc, found := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()
	if !found {
		c.log.Debug("jsonrpc: response for unknown id", "id", resp.ID)
		return
	}
	pc.result <- resp
}

func (c *Connection) dispatchNotification(ctx context.Context, req *Request) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if c.h == nil {
			return
		}
		if _, err := c.h.Handle(ctx, req); err != nil {
			c.log.Debug("jsonrpc: notification handler error", "method", req.Method, "error", err)
		}
	}()
}

func (c *Connection) dispatchCall(ctx context.Context, req *Request) {
	id := req.ID
	hctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.handling[id] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.handling, id)
			cancel()
			c.mu.Unlock()
		}()

		var result any
		var herr error
		if c.h == nil {
			herr = NewError(CodeMethodNotFound, "method %q not found", req.Method)
		} else {
			result, herr = c.h.Handle(hctx, req)
		}

		c.mu.Lock()
		silent := c.cancelled[id]
		delete(c.cancelled, id)
		c.mu.Unlock()
		if silent {
			return
		}
		c.respond(ctx, req.ID, result, herr)
	}()
}

func (c *Connection) respond(ctx context.Context, id ID, result any, herr error) {
	resp, err := NewResponse(id, result, herr)
	if err != nil {
		resp = &Response{ID: id, Error: NewError(CodeInternalError, "marshaling result: %v", err)}
	}
	if err := c.write(ctx, resp); err != nil {
		c.reportInternalError(fmt.Errorf("writing response to %v: %w", id, err))
	}
}

func (c *Connection) finish(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if err == io.EOF {
		err = nil
	}
	c.closeErr = err
	for _, pc := range c.pending {
		select {
		case pc.result <- &Response{Error: ErrClosed}:
		default:
		}
	}
	c.mu.Unlock()
	c.closer.Close()
}

func (c *Connection) reportInternalError(err error) {
	if c.onErr != nil {
		c.onErr(err)
		return
	}
	c.log.Error("jsonrpc: internal error", "error", err)
}
