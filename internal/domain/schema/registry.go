// Package schema implements the Schema Registry: a pure, read-only
// traversal of a compiled component's export tree that produces the flat
// tool descriptors the rest of the host operates on.
package schema

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// ToolDescriptor is the unit the Component Registry indexes and the Tool
// Gateway hands back over MCP (spec §3).
type ToolDescriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"` // nil when the function has zero results
}

// ExportsToTools walks component's export tree depth-first and emits one
// ToolDescriptor per function export, addressed by its dotted,
// prefix-joined path.
func ExportsToTools(component outbound.Component) []ToolDescriptor {
	var out []ToolDescriptor
	visited := make(map[uint64]bool)
	walk(component.Exports(), "", visited, &out)
	return out
}

func walk(nodes []outbound.ExportNode, prefix string, visited map[uint64]bool, out *[]ToolDescriptor) {
	for _, n := range nodes {
		switch n.Kind {
		case outbound.NodeFunction:
			name := joinName(prefix, n.ExportName)
			*out = append(*out, ToolDescriptor{
				Name:         name,
				Description:  fmt.Sprintf("Auto-generated schema for function '%s'", name),
				InputSchema:  inputSchema(n.Signature),
				OutputSchema: outputSchema(n.Signature),
			})

		case outbound.NodeSubComponent, outbound.NodeInstance:
			key := identityKey(n)
			if visited[key] {
				continue
			}
			visited[key] = true
			walk(n.Children, joinName(prefix, n.ExportName), visited, out)

		default:
			// core-function, core-module, type, resource-type: ignored.
		}
	}
}

// joinName builds the dotted export path. The leaf name is always included;
// the prefix only grows for ancestors with a non-empty export name.
func joinName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}

// identityKey hashes enough of a node's shape to detect a re-exported
// instance revisited via a cyclic export graph (spec §9), without requiring
// the engine to expose a stable pointer or id for component types.
func identityKey(n outbound.ExportNode) uint64 {
	h := xxhash.New()
	h.WriteString(n.ExportName)
	for _, c := range n.Children {
		h.WriteString(c.ExportName)
	}
	return h.Sum64()
}

func inputSchema(sig wasmtype.FuncSignature) map[string]any {
	props := make(map[string]any, len(sig.Params))
	required := make([]any, 0, len(sig.Params))
	for _, p := range sig.Params {
		props[p.Name] = wasmtype.TypeToSchema(p.Type)
		required = append(required, p.Name)
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}

// outputSchema implements the §3 rule: omitted (nil) for zero results, the
// bare schema for exactly one, and an array-of-items schema for more than
// one.
func outputSchema(sig wasmtype.FuncSignature) map[string]any {
	switch len(sig.Results) {
	case 0:
		return nil
	case 1:
		return wasmtype.TypeToSchema(sig.Results[0])
	default:
		items := make([]any, len(sig.Results))
		for i, r := range sig.Results {
			items[i] = wasmtype.TypeToSchema(r)
		}
		return map[string]any{"type": "array", "items": items}
	}
}
