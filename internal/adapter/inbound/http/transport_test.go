package http

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/engine/fake"
	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
	"github.com/Wasm-Cell/wasmcell/internal/service/toolgateway"
)

func newTestGatewayForTransport(t *testing.T) *toolgateway.Gateway {
	t.Helper()
	m, err := lifecycle.New(context.Background(), t.TempDir(), "", fake.New(), nil, nil, nil)
	if err != nil {
		t.Fatalf("lifecycle.New: %v", err)
	}
	return toolgateway.New(m, nil)
}

func TestTransport_StartAndShutdown(t *testing.T) {
	logger := slog.Default()
	transport := NewHTTPTransport(newTestGatewayForTransport(t),
		WithAddr("127.0.0.1:0"),
		WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return within 5 seconds after cancel")
	}
}

func TestNewHTTPTransport_Defaults(t *testing.T) {
	transport := NewHTTPTransport(newTestGatewayForTransport(t))

	if transport.addr != "127.0.0.1:9090" {
		t.Errorf("addr = %q, want 127.0.0.1:9090", transport.addr)
	}
	if transport.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

// TestToolsListChangedBroadcast verifies that emitToolsListChanged pushes a
// notifications/tools/list_changed message to a registered SSE connection.
func TestToolsListChangedBroadcast(t *testing.T) {
	gateway := newTestGatewayForTransport(t)
	transport := NewHTTPTransport(gateway, WithLogger(slog.Default()))

	ch := make(chan []byte, 1)
	transport.sessions.register("sess-1", ch)
	defer transport.sessions.unregister("sess-1", ch)

	transport.emitToolsListChanged()

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "notifications/tools/list_changed") {
			t.Errorf("broadcast message = %s, want it to name notifications/tools/list_changed", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("did not receive tools/list_changed broadcast")
	}
}
