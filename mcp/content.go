// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"encoding/json"
	"fmt"
)

// Content is the wire form of a single content block inside a tool result,
// prompt message, or resource read. Type discriminates which of Text,
// Data, or Resource is populated: "text", "image", "audio", or "resource".
type Content struct {
	Type        string            `json:"type"`
	Text        string            `json:"text,omitempty"`
	MIMEType    string            `json:"mimeType,omitempty"`
	Data        []byte            `json:"data,omitempty"`
	Resource    *ResourceContents `json:"resource,omitempty"`
	Annotations *Annotations      `json:"annotations,omitempty"`
}

// Annotations carry hints about how a client should treat a piece of
// content: which roles it is intended for and how important it is.
type Annotations struct {
	Audience []string `json:"audience,omitempty"`
	Priority float64  `json:"priority,omitempty"`
}

func (c *Content) UnmarshalJSON(data []byte) error {
	type wireContent Content
	var w wireContent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "text", "image", "audio", "resource":
	default:
		return fmt.Errorf("mcp: unrecognized content type %q", w.Type)
	}
	*c = Content(w)
	return nil
}

// NewTextContent builds a text content block.
func NewTextContent(text string) *Content {
	return &Content{Type: "text", Text: text}
}

// NewImageContent builds an image content block from raw bytes.
func NewImageContent(data []byte, mimeType string) *Content {
	return &Content{Type: "image", Data: data, MIMEType: mimeType}
}

// NewAudioContent builds an audio content block from raw bytes.
func NewAudioContent(data []byte, mimeType string) *Content {
	return &Content{Type: "audio", Data: data, MIMEType: mimeType}
}

// NewResourceContent embeds a resource's contents inline in a content list.
func NewResourceContent(r *ResourceContents) *Content {
	return &Content{Type: "resource", Resource: r}
}

// ResourceContents is either a text or a blob resource, distinguished on
// the wire by whether Blob is present: see
// https://github.com/modelcontextprotocol/modelcontextprotocol/blob/main/schema/2025-06-18/schema.ts
// for the two-subtype inheritance this flattens.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     []byte `json:"blob,omitempty"`
	isBlob   bool
}

// NewTextResourceContents builds a text resource.
func NewTextResourceContents(uri, mimeType, text string) *ResourceContents {
	return &ResourceContents{URI: uri, MIMEType: mimeType, Text: text}
}

// NewBlobResourceContents builds a binary resource. blob may be empty (but
// not nil) for a zero-length resource; that still marshals as a blob, not
// as a text resource with an empty string.
func NewBlobResourceContents(uri, mimeType string, blob []byte) *ResourceContents {
	if blob == nil {
		blob = []byte{}
	}
	return &ResourceContents{URI: uri, MIMEType: mimeType, Blob: blob, isBlob: true}
}

func (r *ResourceContents) MarshalJSON() ([]byte, error) {
	type wire struct {
		URI      string  `json:"uri"`
		MIMEType string  `json:"mimeType,omitempty"`
		Text     string  `json:"text,omitempty"`
		Blob     *[]byte `json:"blob,omitempty"`
	}
	w := wire{URI: r.URI, MIMEType: r.MIMEType}
	if r.isBlob || r.Blob != nil {
		blob := r.Blob
		if blob == nil {
			blob = []byte{}
		}
		w.Blob = &blob
	} else {
		w.Text = r.Text
	}
	return json.Marshal(w)
}

func (r *ResourceContents) UnmarshalJSON(data []byte) error {
	var w struct {
		URI      string  `json:"uri"`
		MIMEType string  `json:"mimeType,omitempty"`
		Text     string  `json:"text,omitempty"`
		Blob     []byte  `json:"blob"`
		HasBlob  *string `json:"-"`
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	_, hasBlob := raw["blob"]
	*r = ResourceContents{URI: w.URI, MIMEType: w.MIMEType, Text: w.Text, Blob: w.Blob, isBlob: hasBlob}
	return nil
}

// IsBlob reports whether r represents binary (blob) content rather than text.
func (r *ResourceContents) IsBlob() bool { return r.isBlob }
