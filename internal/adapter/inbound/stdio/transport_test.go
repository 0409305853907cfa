package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/engine/fake"
	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/inbound"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
	"github.com/Wasm-Cell/wasmcell/internal/service/toolgateway"
)

var _ inbound.ToolServer = (*Transport)(nil)

// syncBuffer guards a bytes.Buffer so the transport's writer goroutine and
// the test's polling reads don't race.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

func newTestTransport(t *testing.T, in io.Reader, out *syncBuffer) *Transport {
	t.Helper()
	pluginDir := t.TempDir()
	eng := fake.New()
	m, err := lifecycle.New(context.Background(), pluginDir, "", eng, nil, nil, nil)
	if err != nil {
		t.Fatalf("lifecycle.New: %v", err)
	}
	gateway := toolgateway.New(m, nil)
	return New(gateway, in, out, nil)
}

func readLine(t *testing.T, out *syncBuffer, deadline time.Time) string {
	t.Helper()
	for time.Now().Before(deadline) {
		scanner := bufio.NewScanner(bytes.NewReader(out.Bytes()))
		if scanner.Scan() {
			return scanner.Text()
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for a response line, got: %q", out.Bytes())
	return ""
}

func TestStartServesToolsList(t *testing.T) {
	in := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"tools/list","id":1}` + "\n")
	var out syncBuffer
	transport := newTestTransport(t, in, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- transport.Start(ctx) }()

	line := readLine(t, &out, time.Now().Add(2*time.Second))
	var resp struct {
		Result struct {
			Tools []map[string]any `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("unmarshal response: %v, got %q", err, line)
	}
	if len(resp.Result.Tools) != 9 {
		t.Fatalf("expected 9 builtin tools with no components loaded, got %d", len(resp.Result.Tools))
	}

	cancel()
	<-done
}

func TestStartServesToolsCallBuiltin(t *testing.T) {
	in := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list-components","arguments":{}},"id":7}` + "\n")
	var out syncBuffer
	transport := newTestTransport(t, in, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- transport.Start(ctx) }()

	line := readLine(t, &out, time.Now().Add(2*time.Second))
	var resp struct {
		ID     int `json:"id"`
		Result struct {
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("unmarshal response: %v, got %q", err, line)
	}
	if resp.ID != 7 {
		t.Fatalf("expected id echoed back as 7, got %d", resp.ID)
	}
	if resp.Result.IsError {
		t.Fatalf("expected success, got error result: %s", line)
	}

	cancel()
	<-done
}

func TestStartEmitsToolsListChangedAfterLoad(t *testing.T) {
	pluginDir := t.TempDir()
	eng := fake.New()
	m, err := lifecycle.New(context.Background(), pluginDir, "", eng, nil, nil, nil)
	if err != nil {
		t.Fatalf("lifecycle.New: %v", err)
	}
	gateway := toolgateway.New(m, nil)

	wasmBytes := []byte("stdio-test-component")
	eng.Register(wasmBytes, &fake.Component{
		ExportTree: []outbound.ExportNode{{
			Kind:       outbound.NodeFunction,
			ExportName: "echo",
			Signature: wasmtype.FuncSignature{
				Params:  []wasmtype.NamedType{{Name: "msg", Type: wasmtype.Type{Kind: wasmtype.String}}},
				Results: []wasmtype.Type{{Kind: wasmtype.String}},
			},
		}},
	})
	src := filepath.Join(t.TempDir(), "svc.wasm")
	if err := os.WriteFile(src, wasmBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	request := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"load-component","arguments":{"path":"file://` + src + `"}},"id":1}` + "\n"
	in := bytes.NewBufferString(request)
	var out syncBuffer
	transport := New(gateway, in, &out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- transport.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	var sawNotification bool
	for time.Now().Before(deadline) {
		if bytes.Contains(out.Bytes(), []byte("notifications/tools/list_changed")) {
			sawNotification = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !sawNotification {
		t.Fatalf("expected a tools/list_changed notification, got: %q", out.Bytes())
	}

	cancel()
	<-done
}

func TestCloseIsNoOp(t *testing.T) {
	var out syncBuffer
	transport := newTestTransport(t, bytes.NewBufferString(""), &out)
	if err := transport.Close(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
