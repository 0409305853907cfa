package schema

import (
	"testing"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

type fakeComponent struct {
	exports []outbound.ExportNode
}

func (f fakeComponent) Exports() []outbound.ExportNode { return f.exports }

func TestExportsToToolsPrefixJoining(t *testing.T) {
	c := fakeComponent{exports: []outbound.ExportNode{
		{
			Kind:       outbound.NodeInstance,
			ExportName: "wasi:filesystem/types",
			Children: []outbound.ExportNode{
				{
					Kind:       outbound.NodeFunction,
					ExportName: "list-directory",
					Signature: wasmtype.FuncSignature{
						Params:  []wasmtype.NamedType{{Name: "path", Type: wasmtype.Type{Kind: wasmtype.String}}},
						Results: []wasmtype.Type{{Kind: wasmtype.List, Elem: &wasmtype.Type{Kind: wasmtype.String}}},
					},
				},
			},
		},
		{
			Kind:       outbound.NodeFunction,
			ExportName: "fetch",
			Signature: wasmtype.FuncSignature{
				Params:  []wasmtype.NamedType{{Name: "url", Type: wasmtype.Type{Kind: wasmtype.String}}},
				Results: []wasmtype.Type{{Kind: wasmtype.String}},
			},
		},
	}}

	tools := ExportsToTools(c)
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d: %#v", len(tools), tools)
	}

	byName := map[string]ToolDescriptor{}
	for _, td := range tools {
		byName[td.Name] = td
	}

	nested, ok := byName["wasi:filesystem/types.list-directory"]
	if !ok {
		t.Fatalf("expected nested tool name, got %#v", byName)
	}
	if nested.OutputSchema == nil {
		t.Fatalf("expected non-nil output schema for one result")
	}

	leaf, ok := byName["fetch"]
	if !ok {
		t.Fatalf("expected bare leaf tool name, got %#v", byName)
	}
	if leaf.Description != "Auto-generated schema for function 'fetch'" {
		t.Fatalf("unexpected description: %q", leaf.Description)
	}
}

func TestExportsToToolsOutputSchemaArity(t *testing.T) {
	c := fakeComponent{exports: []outbound.ExportNode{
		{Kind: outbound.NodeFunction, ExportName: "zero", Signature: wasmtype.FuncSignature{}},
		{Kind: outbound.NodeFunction, ExportName: "two", Signature: wasmtype.FuncSignature{
			Results: []wasmtype.Type{{Kind: wasmtype.Bool}, {Kind: wasmtype.String}},
		}},
	}}
	tools := ExportsToTools(c)
	byName := map[string]ToolDescriptor{}
	for _, td := range tools {
		byName[td.Name] = td
	}
	if byName["zero"].OutputSchema != nil {
		t.Fatalf("expected nil output schema for zero results")
	}
	arr, ok := byName["two"].OutputSchema["items"].([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected 2-item array output schema, got %#v", byName["two"].OutputSchema)
	}
}

func TestExportsToToolsCycleGuard(t *testing.T) {
	// Two sibling instances that re-export the same shape (same export name,
	// same children) must each be visited once; a deliberately-reintroduced
	// duplicate sibling would otherwise double the tool count.
	leaf := outbound.ExportNode{Kind: outbound.NodeFunction, ExportName: "op"}
	inst := outbound.ExportNode{Kind: outbound.NodeInstance, ExportName: "shared", Children: []outbound.ExportNode{leaf}}
	c := fakeComponent{exports: []outbound.ExportNode{inst, inst}}

	tools := ExportsToTools(c)
	if len(tools) != 1 {
		t.Fatalf("expected cycle guard to dedupe identical re-export, got %d tools", len(tools))
	}
}
