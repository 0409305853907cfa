// Package wasmcell provides a Go SDK for calling a running WasmCell host's
// Tool Gateway over its Streamable-HTTP JSON-RPC surface.
//
// It uses only the Go standard library (net/http), matching the host's own
// stdio/HTTP transports rather than pulling in a generic JSON-RPC client
// library.
//
// Quick start:
//
//	// Set WASMCELL_SERVER_ADDR, then:
//	client := wasmcell.NewClient()
//
//	tools, err := client.ListTools(ctx)
//	result, err := client.CallTool(ctx, "greeter.say_hello", map[string]any{"name": "world"})
package wasmcell

import "encoding/json"

// ToolDescriptor describes one callable tool exported by a loaded component,
// mirroring internal/domain/schema.ToolDescriptor on the wire.
type ToolDescriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

// Content is one item of a tool call's content block.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the MCP `tools/call` response shape.
type CallToolResult struct {
	Content           []Content       `json:"content"`
	IsError           bool            `json:"isError,omitempty"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
}
