// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonrpc

import (
	"context"
	"io"
)

// Reader abstracts the transport mechanics from the JSON-RPC protocol. A
// Connection reads messages from the Reader it was bound to, and assumes
// each call to Read fully transfers one message or returns an error. A
// Reader is not safe for concurrent use; it is read by a single goroutine
// inside Connection.
type Reader interface {
	Read(context.Context) (Message, error)
}

// Writer abstracts the transport mechanics from the JSON-RPC protocol. A
// Connection serializes all calls to Write behind its own mutex, so a
// Writer implementation need not be safe for concurrent use on its own.
type Writer interface {
	Write(context.Context, Message) error
}

// Framer wraps a byte stream into a message Reader and Writer, handling
// whatever on-wire framing (newline-delimited, length-prefixed, SSE, ...)
// the binding requires. It performs framing and encoding only; it never
// interprets JSON-RPC semantics.
type Framer interface {
	Reader(io.Reader) Reader
	Writer(io.Writer) Writer
}
