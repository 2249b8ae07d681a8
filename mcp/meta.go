// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"encoding/json"
	"fmt"
)

// ProgressToken correlates notifications/progress messages with the
// request that authorized them. It is opaque to the runtime and may be a
// string or an integer on the wire.
type ProgressToken struct {
	value any // nil, string, or int64
}

// IsValid reports whether the token was actually set on the request.
func (t ProgressToken) IsValid() bool { return t.value != nil }

// Raw returns the underlying string or int64 value, or nil.
func (t ProgressToken) Raw() any { return t.value }

func (t ProgressToken) String() string {
	return fmt.Sprintf("%v", t.value)
}

func (t ProgressToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

func (t *ProgressToken) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		t.value = nil
	case string:
		t.value = v
	case float64:
		t.value = int64(v)
	default:
		return fmt.Errorf("mcp: invalid progress token type %T", v)
	}
	return nil
}

// Meta is the `_meta` field carried by requests and results. Data holds any
// implementation-defined members alongside the well-known ProgressToken.
type Meta struct {
	ProgressToken ProgressToken
	Data          map[string]any
}

func (m *Meta) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	out := make(map[string]any, len(m.Data)+1)
	for k, v := range m.Data {
		out[k] = v
	}
	if m.ProgressToken.IsValid() {
		out["progressToken"] = m.ProgressToken.Raw()
	}
	if len(out) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(out)
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if pt, ok := raw["progressToken"]; ok {
		if err := json.Unmarshal(pt, &m.ProgressToken); err != nil {
			return err
		}
		delete(raw, "progressToken")
	}
	if len(raw) == 0 {
		m.Data = nil
		return nil
	}
	m.Data = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		m.Data[k] = val
	}
	return nil
}

// GetMeta/SetMeta are implemented by every typed params/result struct so
// generic plumbing (progress, task polling) can reach `_meta` uniformly.
type hasMeta interface {
	GetMeta() *Meta
	SetMeta(*Meta)
}
