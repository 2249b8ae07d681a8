// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

// This file holds the plain wire structs for MCP's JSON-RPC params and
// results. They are deliberately unexported-field-free and tag-driven
// rather than built through a schema compiler; the runtime's own
// request/response shapes are few and stable enough that hand-written
// structs, in the spirit of golang-tools' internal/mcp, read more plainly
// than a generated set would.

// Implementation identifies either end of a session: a name and version
// string supplied by the peer's own codebase, not the protocol.
type Implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// ClientCapabilities is what a client advertises during initialize.
type ClientCapabilities struct {
	Roots     *RootsCapability `json:"roots,omitempty"`
	Sampling  map[string]any   `json:"sampling,omitempty"`
	Elicitation map[string]any `json:"elicitation,omitempty"`
}

type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities is constructed from the registry's contents at
// initialize time (spec §4.5): presence of a collection turns on the
// matching capability, and listChanged mirrors whether that collection
// emits change notifications.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Logging   map[string]any       `json:"logging,omitempty"`
	Sampling  map[string]any       `json:"sampling,omitempty"`
	Tasks     map[string]any       `json:"tasks,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
	Subscribe   bool `json:"subscribe,omitempty"`
}

// InitializeParams is the body of the initialize request.
type InitializeParams struct {
	Meta            *Meta              `json:"_meta,omitempty"`
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      Implementation     `json:"clientInfo"`
	Capabilities    ClientCapabilities `json:"capabilities"`
}

func (p *InitializeParams) GetMeta() *Meta  { return p.Meta }
func (p *InitializeParams) SetMeta(m *Meta) { p.Meta = m }

// InitializeResult is the server's reply.
type InitializeResult struct {
	Meta            *Meta              `json:"_meta,omitempty"`
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	Instructions    string             `json:"instructions,omitempty"`
}

func (r *InitializeResult) GetMeta() *Meta  { return r.Meta }
func (r *InitializeResult) SetMeta(m *Meta) { r.Meta = m }

// PingParams carries nothing; ping is pure liveness.
type PingParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *PingParams) GetMeta() *Meta  { return p.Meta }
func (p *PingParams) SetMeta(m *Meta) { p.Meta = m }

// Tool is the protocol descriptor for one callable tool.
type Tool struct {
	Name         string          `json:"name"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	InputSchema  any             `json:"inputSchema"`
	OutputSchema any             `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations `json:"annotations,omitempty"`
}

type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint bool   `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool   `json:"openWorldHint,omitempty"`
}

type ListToolsParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListToolsParams) GetMeta() *Meta  { return p.Meta }
func (p *ListToolsParams) SetMeta(m *Meta) { p.Meta = m }
func (p *ListToolsParams) GetCursor() string { return p.Cursor }

type ListToolsResult struct {
	Meta       *Meta   `json:"_meta,omitempty"`
	Tools      []*Tool `json:"tools"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

func (r *ListToolsResult) GetMeta() *Meta     { return r.Meta }
func (r *ListToolsResult) SetMeta(m *Meta)    { r.Meta = m }
func (r *ListToolsResult) SetNextCursor(c string) { r.NextCursor = c }

// CallToolParams carries the name of the tool and its arguments, which are
// kept as json.RawMessage until the tool's input schema binds them.
type CallToolParams struct {
	Meta      *Meta  `json:"_meta,omitempty"`
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

func (p *CallToolParams) GetMeta() *Meta  { return p.Meta }
func (p *CallToolParams) SetMeta(m *Meta) { p.Meta = m }

// CallToolResult is the tool invocation pipeline's terminal shape (§4.4
// step 6). IsError true means the tool-level failure is carried in Content,
// not as a JSON-RPC error.
type CallToolResult struct {
	Meta              *Meta      `json:"_meta,omitempty"`
	Content           []*Content `json:"content"`
	StructuredContent any        `json:"structuredContent,omitempty"`
	IsError           bool       `json:"isError,omitempty"`
}

func (r *CallToolResult) GetMeta() *Meta  { return r.Meta }
func (r *CallToolResult) SetMeta(m *Meta) { r.Meta = m }

// IsTimeoutResult marks a CallToolResult produced because the tool's
// execution exceeded its effective timeout (§4.3), distinct from a
// protocol-level InternalError.
func IsTimeoutResult(r *CallToolResult) bool {
	if r == nil || r.Meta == nil || r.Meta.Data == nil {
		return false
	}
	v, _ := r.Meta.Data["isTimeout"].(bool)
	return v
}

func markTimeout(r *CallToolResult) *CallToolResult {
	if r.Meta == nil {
		r.Meta = &Meta{}
	}
	if r.Meta.Data == nil {
		r.Meta.Data = map[string]any{}
	}
	r.Meta.Data["isTimeout"] = true
	return r
}

// Prompt is the protocol descriptor for a prompt template.
type Prompt struct {
	Name        string             `json:"name"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Arguments   []*PromptArgument  `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type ListPromptsParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListPromptsParams) GetMeta() *Meta      { return p.Meta }
func (p *ListPromptsParams) SetMeta(m *Meta)     { p.Meta = m }
func (p *ListPromptsParams) GetCursor() string   { return p.Cursor }

type ListPromptsResult struct {
	Meta       *Meta     `json:"_meta,omitempty"`
	Prompts    []*Prompt `json:"prompts"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

func (r *ListPromptsResult) GetMeta() *Meta         { return r.Meta }
func (r *ListPromptsResult) SetMeta(m *Meta)        { r.Meta = m }
func (r *ListPromptsResult) SetNextCursor(c string) { r.NextCursor = c }

type GetPromptParams struct {
	Meta      *Meta             `json:"_meta,omitempty"`
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

func (p *GetPromptParams) GetMeta() *Meta  { return p.Meta }
func (p *GetPromptParams) SetMeta(m *Meta) { p.Meta = m }

type PromptMessage struct {
	Role    string   `json:"role"`
	Content *Content `json:"content"`
}

type GetPromptResult struct {
	Meta        *Meta            `json:"_meta,omitempty"`
	Description string           `json:"description,omitempty"`
	Messages    []*PromptMessage `json:"messages"`
}

func (r *GetPromptResult) GetMeta() *Meta  { return r.Meta }
func (r *GetPromptResult) SetMeta(m *Meta) { r.Meta = m }

// Resource is the protocol descriptor for a static resource (fixed URI).
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate is the protocol descriptor for a parameterized resource
// (an RFC6570-subset URI template).
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

type ListResourcesParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListResourcesParams) GetMeta() *Meta    { return p.Meta }
func (p *ListResourcesParams) SetMeta(m *Meta)   { p.Meta = m }
func (p *ListResourcesParams) GetCursor() string { return p.Cursor }

type ListResourcesResult struct {
	Meta       *Meta       `json:"_meta,omitempty"`
	Resources  []*Resource `json:"resources"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func (r *ListResourcesResult) GetMeta() *Meta         { return r.Meta }
func (r *ListResourcesResult) SetMeta(m *Meta)        { r.Meta = m }
func (r *ListResourcesResult) SetNextCursor(c string) { r.NextCursor = c }

type ReadResourceParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *ReadResourceParams) GetMeta() *Meta  { return p.Meta }
func (p *ReadResourceParams) SetMeta(m *Meta) { p.Meta = m }

type ReadResourceResult struct {
	Meta     *Meta               `json:"_meta,omitempty"`
	Contents []*ResourceContents `json:"contents"`
}

func (r *ReadResourceResult) GetMeta() *Meta  { return r.Meta }
func (r *ReadResourceResult) SetMeta(m *Meta) { r.Meta = m }

type SubscribeParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *SubscribeParams) GetMeta() *Meta  { return p.Meta }
func (p *SubscribeParams) SetMeta(m *Meta) { p.Meta = m }

type UnsubscribeParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *UnsubscribeParams) GetMeta() *Meta  { return p.Meta }
func (p *UnsubscribeParams) SetMeta(m *Meta) { p.Meta = m }

type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}

// LoggingLevel mirrors RFC 5424 severity levels, per spec §4.7/§10.
type LoggingLevel string

const (
	LevelDebug     LoggingLevel = "debug"
	LevelInfo      LoggingLevel = "info"
	LevelNotice    LoggingLevel = "notice"
	LevelWarning   LoggingLevel = "warning"
	LevelError     LoggingLevel = "error"
	LevelCritical  LoggingLevel = "critical"
	LevelAlert     LoggingLevel = "alert"
	LevelEmergency LoggingLevel = "emergency"
)

type SetLevelParams struct {
	Meta  *Meta        `json:"_meta,omitempty"`
	Level LoggingLevel `json:"level"`
}

func (p *SetLevelParams) GetMeta() *Meta  { return p.Meta }
func (p *SetLevelParams) SetMeta(m *Meta) { p.Meta = m }

type LoggingMessageParams struct {
	Level  LoggingLevel `json:"level"`
	Logger string       `json:"logger,omitempty"`
	Data   any          `json:"data"`
}

type ProgressParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         float64       `json:"total,omitempty"`
	Message       string        `json:"message,omitempty"`
}

type CancelledParams struct {
	RequestID any    `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

type ListRootsParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *ListRootsParams) GetMeta() *Meta  { return p.Meta }
func (p *ListRootsParams) SetMeta(m *Meta) { p.Meta = m }

type ListRootsResult struct {
	Meta  *Meta   `json:"_meta,omitempty"`
	Roots []*Root `json:"roots"`
}

func (r *ListRootsResult) GetMeta() *Meta  { return r.Meta }
func (r *ListRootsResult) SetMeta(m *Meta) { r.Meta = m }

type emptyResult struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (r *emptyResult) GetMeta() *Meta  { return r.Meta }
func (r *emptyResult) SetMeta(m *Meta) { r.Meta = m }

// MCP method name constants, grouped by §4 component.
const (
	methodInitialize           = "initialize"
	methodInitialized          = "notifications/initialized"
	methodPing                 = "ping"
	methodListTools            = "tools/list"
	methodCallTool             = "tools/call"
	methodToolsListChanged     = "notifications/tools/list_changed"
	methodListPrompts          = "prompts/list"
	methodGetPrompt            = "prompts/get"
	methodPromptsListChanged   = "notifications/prompts/list_changed"
	methodListResources        = "resources/list"
	methodReadResource         = "resources/read"
	methodResourcesListChanged = "notifications/resources/list_changed"
	methodSubscribe            = "resources/subscribe"
	methodUnsubscribe          = "resources/unsubscribe"
	methodResourceUpdated      = "notifications/resources/updated"
	methodSetLevel             = "logging/setLevel"
	methodLoggingMessage       = "notifications/message"
	methodProgress             = "notifications/progress"
	methodCancelled            = "notifications/cancelled"
	methodListRoots            = "roots/list"
	methodRootsListChanged     = "notifications/roots/list_changed"
)
