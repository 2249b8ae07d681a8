// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"iter"
)

// ToolHandler implements one tool's behavior. args is the raw JSON
// arguments object from CallToolParams. The invocation pipeline does not
// validate it against the tool's InputSchema; a tool built with NewJSONTool
// validates its arguments before its handler runs.
type ToolHandler func(ctx context.Context, args json.RawMessage) (*CallToolResult, error)

// ServerTool pairs a protocol Tool descriptor with its handler and an
// optional per-tool timeout override (§4.3).
type ServerTool struct {
	Tool    *Tool
	Handler ToolHandler
	Timeout *DurationOverride
}

// DurationOverride distinguishes "not set, inherit the session default"
// from "set to zero, meaning no timeout" without resorting to a pointer to
// time.Duration that reads ambiguously at call sites.
type DurationOverride struct {
	Value   int64 // nanoseconds
	Enabled bool
}

// ToolCollection is the server-side registry of callable tools (§4.4, C4).
type ToolCollection struct {
	set *featureSet[*ServerTool]
}

func newToolCollection(changed func()) *ToolCollection {
	return &ToolCollection{
		set: newFeatureSet(func(t *ServerTool) string { return t.Tool.Name }, changed),
	}
}

// AddTool registers or replaces a tool. Registering under an existing name
// atomically replaces the previous descriptor and handler.
func (c *ToolCollection) AddTool(t *ServerTool) { c.set.add(t) }

// RemoveTool removes tools by name and reports whether any were present.
func (c *ToolCollection) RemoveTool(names ...string) bool { return c.set.remove(names...) }

func (c *ToolCollection) get(name string) (*ServerTool, bool) { return c.set.get(name) }

func (c *ToolCollection) len() int { return c.set.len() }

// All iterates the registered tools in a stable order, for hosts that want
// to list their own catalog (e.g. a "tools list" CLI command).
func (c *ToolCollection) All() iter.Seq[*ServerTool] { return c.set.all() }

// PromptHandler renders one prompt template into a message list.
type PromptHandler func(ctx context.Context, args map[string]string) (*GetPromptResult, error)

type ServerPrompt struct {
	Prompt  *Prompt
	Handler PromptHandler
}

// PromptCollection is the server-side registry of prompt templates (§4.4, C4).
type PromptCollection struct {
	set *featureSet[*ServerPrompt]
}

func newPromptCollection(changed func()) *PromptCollection {
	return &PromptCollection{
		set: newFeatureSet(func(p *ServerPrompt) string { return p.Prompt.Name }, changed),
	}
}

func (c *PromptCollection) AddPrompt(p *ServerPrompt)            { c.set.add(p) }
func (c *PromptCollection) RemovePrompt(names ...string) bool    { return c.set.remove(names...) }
func (c *PromptCollection) get(name string) (*ServerPrompt, bool) { return c.set.get(name) }
func (c *PromptCollection) len() int                              { return c.set.len() }

// ResourceHandler reads one resource's contents. For a templated resource
// the matched URI (not the template) is passed in.
type ResourceHandler func(ctx context.Context, uri string) (*ReadResourceResult, error)

// ServerResource is either a fixed resource (Resource set, Template nil) or
// a templated one (Template set, Resource nil); exactly one must be set.
type ServerResource struct {
	Resource *Resource
	Template *ResourceTemplate
	Handler  ResourceHandler
}

func (r *ServerResource) uniqueID() string {
	if r.Resource != nil {
		return r.Resource.URI
	}
	return r.Template.URITemplate
}

// ResourceCollection is the server-side registry of resources and resource
// templates (§4.4, C4). Subscriptions live on the session, not here, since
// they're per-client rather than per-registry (C7).
type ResourceCollection struct {
	set *featureSet[*ServerResource]
}

func newResourceCollection(changed func()) *ResourceCollection {
	return &ResourceCollection{
		set: newFeatureSet(func(r *ServerResource) string { return r.uniqueID() }, changed),
	}
}

func (c *ResourceCollection) AddResource(r *ServerResource) { c.set.add(r) }

func (c *ResourceCollection) RemoveResource(uris ...string) bool { return c.set.remove(uris...) }

// match finds the registered resource (fixed or templated) serving uri. A
// fixed-URI exact match always wins over a template match; among templates
// the first lexical match (by uniqueID, i.e. URI template string) is used,
// mirroring the registry's otherwise-arbitrary-but-stable ordering.
func (c *ResourceCollection) match(uri string) (*ServerResource, bool) {
	if r, ok := c.set.get(uri); ok {
		return r, ok
	}
	for r := range c.set.all() {
		if r.Template == nil {
			continue
		}
		if matchURITemplate(r.Template.URITemplate, uri) {
			return r, true
		}
	}
	return nil, false
}

func (c *ResourceCollection) len() int { return c.set.len() }
