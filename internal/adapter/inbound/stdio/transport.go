// Package stdio provides the stdio transport adapter for the Tool Gateway:
// newline-delimited JSON-RPC over stdin/stdout, the MCP host's primary
// transport (spec §4.8, §6).
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"github.com/Wasm-Cell/wasmcell/internal/port/inbound"
	"github.com/Wasm-Cell/wasmcell/internal/service/toolgateway"
	"github.com/Wasm-Cell/wasmcell/pkg/mcp"
)

// Transport serves the Tool Gateway over stdin/stdout, one newline-delimited
// JSON-RPC message per line (the MCP wire convention the teacher's proxy
// core already assumes in pkg/mcp and internal/service/proxy_service.go).
type Transport struct {
	gateway *toolgateway.Gateway
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger

	writeMu sync.Mutex
}

// New wires transport to gateway, reading in and writing out (typically
// os.Stdin/os.Stdout; parameterized here for testability).
func New(gateway *toolgateway.Gateway, in io.Reader, out io.Writer, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{gateway: gateway, in: in, out: out, logger: logger}
	gateway.OnToolsListChanged(t.emitToolsListChanged)
	return t
}

// Start reads newline-delimited JSON-RPC requests until ctx is cancelled or
// the input is exhausted, dispatching each to the Tool Gateway.
func (t *Transport) Start(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	buf := make([]byte, 0, 256*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw := append([]byte(nil), scanner.Bytes()...)
		if len(raw) == 0 {
			continue
		}

		decoded, err := mcp.DecodeMessage(raw)
		if err != nil {
			t.logger.Warn("failed to decode inbound message", "error", err)
			continue
		}
		req, ok := decoded.(*jsonrpc.Request)
		if !ok {
			t.logger.Warn("ignoring non-request inbound message")
			continue
		}

		t.handleRequest(ctx, req, raw)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read inbound message: %w", err)
	}
	return ctx.Err()
}

// Close is a no-op: stdio holds no resources beyond the process's own
// stdin/stdout.
func (t *Transport) Close() error { return nil }

func (t *Transport) handleRequest(ctx context.Context, req *jsonrpc.Request, raw []byte) {
	rawID := rawID(raw)
	isCall := len(rawID) > 0 && string(rawID) != "null"

	switch req.Method {
	case "tools/list":
		tools := t.gateway.ListTools()
		if isCall {
			t.writeResult(rawID, map[string]any{"tools": tools})
		}

	case "tools/call":
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			if isCall {
				t.writeError(rawID, -32602, fmt.Sprintf("invalid params: %s", err))
			}
			return
		}
		result := t.gateway.CallTool(ctx, params.Name, params.Arguments)
		if isCall {
			t.writeResult(rawID, result)
		}

	default:
		if isCall {
			t.writeError(rawID, -32601, fmt.Sprintf("method not found: %s", req.Method))
		}
	}
}

// emitToolsListChanged pushes the `notifications/tools/list_changed`
// notification (spec §4.8), fired after every built-in that mutates the
// tool set.
func (t *Transport) emitToolsListChanged() {
	t.write(map[string]any{
		"jsonrpc": "2.0",
		"method":  "notifications/tools/list_changed",
	})
}

func (t *Transport) writeResult(id json.RawMessage, result any) {
	t.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	})
}

func (t *Transport) writeError(id json.RawMessage, code int, message string) {
	t.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error":   map[string]any{"code": code, "message": message},
	})
}

func (t *Transport) write(v any) {
	encoded, err := json.Marshal(v)
	if err != nil {
		t.logger.Error("failed to encode outbound message", "error", err)
		return
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.out.Write(append(encoded, '\n')); err != nil {
		t.logger.Error("failed to write outbound message", "error", err)
	}
}

// rawID extracts the "id" field straight from the wire bytes: the SDK's
// jsonrpc.ID type doesn't round-trip cleanly through interface{} (the same
// constraint that drives mcp.Message.RawID in the teacher's proxy core).
func rawID(raw []byte) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields["id"]
}

var _ inbound.ToolServer = (*Transport)(nil)
