package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

func TestCompileAndInstantiateRoundTrip(t *testing.T) {
	eng := New()
	wasmBytes := []byte("fake-bytes-a")
	comp := &Component{
		ExportTree: []outbound.ExportNode{{Kind: outbound.NodeFunction, ExportName: "echo"}},
		Calls: map[string]CallFunc{
			"echo": func(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error) {
				return args, nil
			},
		},
	}
	eng.Register(wasmBytes, comp)

	c, err := eng.Compile(context.Background(), wasmBytes)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(c.Exports()) != 1 {
		t.Fatalf("expected 1 export node")
	}

	inst, err := eng.Instantiate(context.Background(), c, outbound.HostContext{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	defer inst.Close(context.Background())

	args := []wasmtype.Val{{Kind: wasmtype.String, Str: "hi"}}
	results, err := inst.Call(context.Background(), "echo", args)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(results) != 1 || results[0].Str != "hi" {
		t.Fatalf("unexpected call result: %#v", results)
	}

	if len(eng.Instantiated) != 1 {
		t.Fatalf("expected instantiation recorded")
	}
}

func TestCallAfterCloseErrors(t *testing.T) {
	eng := New()
	wasmBytes := []byte("fake-bytes-b")
	comp := &Component{Calls: map[string]CallFunc{
		"noop": func(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error) { return nil, nil },
	}}
	eng.Register(wasmBytes, comp)

	c, _ := eng.Compile(context.Background(), wasmBytes)
	inst, _ := eng.Instantiate(context.Background(), c, outbound.HostContext{})
	inst.Close(context.Background())

	if _, err := inst.Call(context.Background(), "noop", nil); err == nil {
		t.Fatalf("expected error calling a closed instance")
	}
}

func TestCompileUnregisteredBytesErrors(t *testing.T) {
	eng := New()
	if _, err := eng.Compile(context.Background(), []byte("unknown")); err == nil {
		t.Fatalf("expected error for unregistered bytes")
	}
}

func TestCompileErrIsPropagated(t *testing.T) {
	eng := New()
	wasmBytes := []byte("bad-bytes")
	wantErr := errors.New("invalid component")
	eng.Register(wasmBytes, &Component{CompileErr: wantErr})

	_, err := eng.Compile(context.Background(), wasmBytes)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected compile error propagated, got %v", err)
	}
}
