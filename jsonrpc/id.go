// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonrpc implements the wire-level JSON-RPC 2.0 message model and a
// bidirectional connection on top of it: request/response correlation,
// notification dispatch, and cooperative cancellation. It knows nothing
// about MCP method names or semantics; those live in the mcp package.
package jsonrpc

import (
	"fmt"
)

// ID is a JSON-RPC request identifier: a string, a signed 64-bit integer, or
// absent (the zero ID, used for notifications). The concrete kind is
// preserved across the wire: a string "1" is never equal to the integer 1.
type ID struct {
	value any // nil, string, or int64
}

// StringID creates a string-typed request ID.
func StringID(s string) ID { return ID{value: s} }

// Int64ID creates an integer-typed request ID.
func Int64ID(i int64) ID { return ID{value: i} }

// IsValid reports whether id carries a value. The zero ID is invalid and is
// used internally to mark notifications, which have no id on the wire.
func (id ID) IsValid() bool { return id.value != nil }

// Raw returns the underlying value: nil, a string, or an int64.
func (id ID) Raw() any { return id.value }

func (id ID) String() string {
	switch v := id.value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return "<invalid>"
	}
}

// makeID coerces a value decoded from JSON (nil, float64, or string — the
// defaults json.Unmarshal produces for an `any`) into an ID.
func makeID(v any) (ID, error) {
	switch v := v.(type) {
	case nil:
		return ID{}, nil
	case float64:
		return Int64ID(int64(v)), nil
	case string:
		return StringID(v), nil
	}
	return ID{}, fmt.Errorf("%w: invalid id type %T", ErrParse, v)
}
