package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// NewJSONTool builds a ServerTool whose arguments are validated against
// inputSchema before handler runs, compiling the schema once here so a
// malformed schema fails at registration rather than at the first call
// (§4.4 step 2). inputSchema is the raw JSON Schema document (typically a
// map[string]any literal); a schema violation, or arguments that don't
// even parse as JSON, surfaces as an InvalidParams JSON-RPC error —
// distinct from a CallToolResult the handler itself reports with
// IsError, per the §7 error table's separate rows for binding failures
// and handler-reported business errors.
func NewJSONTool(name, description string, inputSchema map[string]any, handler ToolHandler) (*ServerTool, error) {
	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling input schema for tool %q: %w", name, err)
	}
	resourceURL := "mcp://tools/" + name + "/input-schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("mcp: loading input schema for tool %q: %w", name, err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("mcp: compiling input schema for tool %q: %w", name, err)
	}

	wrapped := func(ctx context.Context, args json.RawMessage) (*CallToolResult, error) {
		var instance any = map[string]any{}
		if len(args) > 0 {
			dec := json.NewDecoder(bytes.NewReader(args))
			dec.UseNumber()
			if err := dec.Decode(&instance); err != nil {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid arguments for tool %q: %v", name, err)
			}
		}
		if err := compiled.Validate(instance); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "arguments for tool %q failed schema validation: %v", name, err)
		}
		return handler(ctx, args)
	}
	return &ServerTool{
		Tool:    &Tool{Name: name, Description: description, InputSchema: inputSchema},
		Handler: wrapped,
	}, nil
}
