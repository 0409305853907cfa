// Package toolgateway implements the Tool Gateway: the MCP-facing surface
// that folds every loaded component's tools and the lifecycle built-ins
// into one `tools/list`/`tools/call` namespace (spec §4.8).
package toolgateway

import "encoding/json"

// Content is one item of a CallToolResult's content array. The core only
// ever produces text content.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the MCP `tools/call` response shape (spec §4.8, §6).
type CallToolResult struct {
	Content           []Content       `json:"content"`
	IsError           bool            `json:"isError,omitempty"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
}

func textResult(text string) CallToolResult {
	return CallToolResult{Content: []Content{{Type: "text", Text: text}}}
}

func errorResult(err error) CallToolResult {
	return CallToolResult{
		IsError: true,
		Content: []Content{{Type: "text", Text: "Error: " + err.Error()}},
	}
}

// structuredResult reports raw JSON verbatim as both the opaque text
// content and the structured_content field, so clients that only read
// content.text still get the value (spec §4.8: "raw text ... or the
// structured JSON from the component").
func structuredResult(raw json.RawMessage) CallToolResult {
	return CallToolResult{
		Content:           []Content{{Type: "text", Text: string(raw)}},
		StructuredContent: raw,
	}
}
