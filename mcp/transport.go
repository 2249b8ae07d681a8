// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// ErrConnectionClosed is returned when sending a message to a connection
// that is closed or in the process of closing.
var ErrConnectionClosed = errors.New("mcp: connection closed")

// Transport produces a single bidirectional byte stream to one peer, e.g.
// stdio or a subprocess's stdin/stdout. Server.Connect and Client.Connect
// both take one of these.
type Transport interface {
	Connect(ctx context.Context) (io.ReadWriteCloser, error)
	Framer() jsonrpc.Framer
}

// ListeningTransport produces a new Transport, and thus a new session, for
// each accepted peer; used by Server.Run for binding HTTP servers.
type ListeningTransport interface {
	Accept(ctx context.Context) (Transport, error)
}

type fixedTransport struct {
	rwc    io.ReadWriteCloser
	framer jsonrpc.Framer
	used   bool
}

func (t *fixedTransport) Connect(ctx context.Context) (io.ReadWriteCloser, error) {
	if t.used {
		return nil, errors.New("mcp: transport already connected")
	}
	t.used = true
	return t.rwc, nil
}

func (t *fixedTransport) Framer() jsonrpc.Framer { return t.framer }

// NewStdIOTransport constructs a transport that communicates over this
// process's stdin/stdout, framed as newline-delimited JSON (§6.1).
func NewStdIOTransport() Transport {
	return &fixedTransport{rwc: rwc{os.Stdin, os.Stdout}, framer: &ndjsonFramer{}}
}

// NewLocalTransport returns two in-memory transports connected to each
// other over a net.Pipe, for tests and in-process client/server pairs.
func NewLocalTransport() (Transport, Transport) {
	c1, c2 := net.Pipe()
	return &fixedTransport{rwc: c1, framer: &ndjsonFramer{}},
		&fixedTransport{rwc: c2, framer: &ndjsonFramer{}}
}

// rwc binds a reader and writer together to satisfy io.ReadWriteCloser,
// closing both (joining any errors) on Close.
type rwc struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (c rwc) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c rwc) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c rwc) Close() error                { return errors.Join(c.r.Close(), c.w.Close()) }

// ndjsonFramer frames JSON-RPC messages one per line, per
// https://github.com/ndjson/ndjson-spec. Unlike golang-tools' framer of the
// same name, it does not implement JSON-RPC batching: MCP transports never
// send batched payloads (removed from the protocol as of 2025-06-18), so
// the batch-correlation bookkeeping would be dead code here.
type ndjsonFramer struct{}

func (f *ndjsonFramer) Reader(r io.Reader) jsonrpc.Reader {
	return &ndjsonReader{dec: json.NewDecoder(bufio.NewReader(r))}
}

func (f *ndjsonFramer) Writer(w io.Writer) jsonrpc.Writer {
	return &ndjsonWriter{w: w}
}

type ndjsonReader struct {
	dec *json.Decoder
}

func (r *ndjsonReader) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return jsonrpc.DecodeMessage(raw)
}

type ndjsonWriter struct {
	w io.Writer
}

func (w *ndjsonWriter) Write(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("mcp: encoding message: %w", err)
	}
	data = append(data, '\n')
	_, err = w.w.Write(data)
	return err
}
