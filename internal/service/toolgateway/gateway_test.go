package toolgateway

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/engine/fake"
	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
)

func newTestGateway(t *testing.T) (*Gateway, *lifecycle.Manager, *fake.Engine, string) {
	t.Helper()
	pluginDir := t.TempDir()
	eng := fake.New()
	m, err := lifecycle.New(context.Background(), pluginDir, "", eng, nil, nil, nil)
	if err != nil {
		t.Fatalf("lifecycle.New: %v", err)
	}
	g := New(m, nil)
	return g, m, eng, pluginDir
}

func registerEcho(eng *fake.Engine, wasmBytes []byte) {
	eng.Register(wasmBytes, &fake.Component{
		ExportTree: []outbound.ExportNode{{
			Kind:       outbound.NodeFunction,
			ExportName: "echo",
			Signature: wasmtype.FuncSignature{
				Params:  []wasmtype.NamedType{{Name: "msg", Type: wasmtype.Type{Kind: wasmtype.String}}},
				Results: []wasmtype.Type{{Kind: wasmtype.String}},
			},
		}},
		Calls: map[string]fake.CallFunc{
			"echo": func(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error) {
				return args, nil
			},
		},
	})
}

func TestListToolsIncludesBuiltinsAndComponentTools(t *testing.T) {
	g, m, eng, dir := newTestGateway(t)
	wasmBytes := []byte("gateway-component")
	registerEcho(eng, wasmBytes)
	src := filepath.Join(t.TempDir(), "svc.wasm")
	if err := os.WriteFile(src, wasmBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, _, err := m.LoadComponent(context.Background(), "file://"+src); err != nil {
		t.Fatalf("LoadComponent: %v", err)
	}
	_ = dir

	tools := g.ListTools()
	var hasEcho, hasLoad bool
	for _, tool := range tools {
		if tool.Name == "echo" {
			hasEcho = true
		}
		if tool.Name == toolLoadComponent {
			hasLoad = true
		}
	}
	if !hasEcho || !hasLoad {
		t.Fatalf("expected both component tool and builtins listed, got %+v", tools)
	}
}

func TestCallToolLoadComponentNotifiesToolsListChanged(t *testing.T) {
	g, _, eng, _ := newTestGateway(t)
	wasmBytes := []byte("gateway-component-2")
	registerEcho(eng, wasmBytes)
	src := filepath.Join(t.TempDir(), "svc2.wasm")
	if err := os.WriteFile(src, wasmBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	notified := false
	g.OnToolsListChanged(func() { notified = true })

	args, _ := json.Marshal(map[string]any{"path": "file://" + src})
	result := g.CallTool(context.Background(), toolLoadComponent, args)
	if result.IsError {
		t.Fatalf("expected success, got %+v", result)
	}
	if !notified {
		t.Fatalf("expected tools/list_changed notification after load")
	}
}

func TestCallToolUnknownNameErrors(t *testing.T) {
	g, _, _, _ := newTestGateway(t)
	result := g.CallTool(context.Background(), "nonexistent-tool", nil)
	if !result.IsError {
		t.Fatalf("expected error result for unknown tool")
	}
}

func TestCallToolComponentDispatch(t *testing.T) {
	g, m, eng, _ := newTestGateway(t)
	wasmBytes := []byte("gateway-component-3")
	registerEcho(eng, wasmBytes)
	src := filepath.Join(t.TempDir(), "svc3.wasm")
	if err := os.WriteFile(src, wasmBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, _, err := m.LoadComponent(context.Background(), "file://"+src); err != nil {
		t.Fatalf("LoadComponent: %v", err)
	}

	args, _ := json.Marshal(map[string]any{"msg": "hello"})
	result := g.CallTool(context.Background(), "echo", args)
	if result.IsError {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Content[0].Text != "hello" {
		t.Fatalf("expected echoed text, got %q", result.Content[0].Text)
	}
}

func TestCallToolBuiltinMissingArgumentErrors(t *testing.T) {
	g, _, _, _ := newTestGateway(t)
	result := g.CallTool(context.Background(), toolUnloadComponent, []byte(`{}`))
	if !result.IsError {
		t.Fatalf("expected error result for missing required argument")
	}
}

func TestCallToolListComponentsBuiltin(t *testing.T) {
	g, m, eng, _ := newTestGateway(t)
	wasmBytes := []byte("gateway-component-4")
	registerEcho(eng, wasmBytes)
	src := filepath.Join(t.TempDir(), "svc4.wasm")
	if err := os.WriteFile(src, wasmBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, _, err := m.LoadComponent(context.Background(), "file://"+src); err != nil {
		t.Fatalf("LoadComponent: %v", err)
	}

	result := g.CallTool(context.Background(), toolListComponents, nil)
	if result.IsError {
		t.Fatalf("expected success, got %+v", result)
	}
	var decoded struct {
		Components []string `json:"components"`
	}
	if err := json.Unmarshal(result.StructuredContent, &decoded); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}
	if len(decoded.Components) != 1 || decoded.Components[0] != "svc4" {
		t.Fatalf("expected [svc4], got %v", decoded.Components)
	}
}
