package toolgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Wasm-Cell/wasmcell/internal/domain/component"
	"github.com/Wasm-Cell/wasmcell/internal/domain/schema"
	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
)

// Gateway folds a Lifecycle Manager's component tools and the built-in
// administrative tools into one MCP tool surface (spec §4.8). It
// implements lifecycle.ChangeNotifier so the manager can push
// tools/list_changed notifications back out through whatever transport
// is currently attached.
type Gateway struct {
	manager *lifecycle.Manager
	logger  *slog.Logger

	onToolsChanged func()
}

// New wires gateway to manager, registering itself as manager's
// ChangeNotifier.
func New(manager *lifecycle.Manager, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{manager: manager, logger: logger}
	manager.SetChangeNotifier(g)
	return g
}

// OnToolsListChanged registers the callback invoked after a built-in
// mutates the tool set. A transport adapter uses this to emit the
// `notifications/tools/list_changed` wire notification.
func (g *Gateway) OnToolsListChanged(fn func()) {
	g.onToolsChanged = fn
}

// NotifyToolsListChanged implements lifecycle.ChangeNotifier.
func (g *Gateway) NotifyToolsListChanged() {
	if g.onToolsChanged != nil {
		g.onToolsChanged()
	}
}

// ListTools returns every component's tools unioned with the built-ins
// (spec §4.8: "get_component_tools() ∪ built-ins").
func (g *Gateway) ListTools() []schema.ToolDescriptor {
	tools := g.manager.ListTools()
	return append(tools, builtinTools()...)
}

// CallTool dispatches a `tools/call` request: built-ins route to their
// lifecycle method, everything else resolves through the component tool
// map to execute_component_call. Errors never escape as Go errors here;
// they're folded into CallToolResult{IsError: true} (spec §4.8, §6).
func (g *Gateway) CallTool(ctx context.Context, name string, arguments json.RawMessage) CallToolResult {
	if isBuiltin(name) {
		result, err := g.dispatchBuiltin(ctx, name, arguments)
		if err != nil {
			g.logger.Error("builtin tool call failed", "tool", name, "error", err)
			return errorResult(err)
		}
		if mutatesToolSet(name) {
			g.NotifyToolsListChanged()
		}
		return result
	}

	componentID, err := g.manager.GetComponentIDForTool(name)
	if err != nil {
		if errors.Is(err, component.ErrAmbiguousTool) {
			return errorResult(errors.New("Multiple components found for tool"))
		}
		g.logger.Error("tool call failed", "tool", name, "error", err)
		return errorResult(err)
	}

	out, err := g.manager.ExecuteComponentCall(ctx, componentID, name, string(arguments))
	if err != nil {
		g.logger.Error("component call failed", "tool", name, "component_id", componentID, "error", err)
		return errorResult(err)
	}
	// A single string result arrives as its inner text, which is not JSON.
	if !json.Valid([]byte(out)) {
		return textResult(out)
	}
	return structuredResult(json.RawMessage(out))
}

func (g *Gateway) dispatchBuiltin(ctx context.Context, name string, arguments json.RawMessage) (CallToolResult, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return CallToolResult{}, fmt.Errorf("parse arguments: %w", err)
		}
	}

	switch name {
	case toolLoadComponent:
		path, err := stringArg(args, "path")
		if err != nil {
			return CallToolResult{}, err
		}
		id, result, err := g.manager.LoadComponent(ctx, path)
		if err != nil {
			return CallToolResult{}, err
		}
		return jsonResult(map[string]any{"id": id, "result": result.String()})

	case toolUnloadComponent:
		id, err := stringArg(args, "id")
		if err != nil {
			return CallToolResult{}, err
		}
		g.manager.UnloadComponent(ctx, id)
		return jsonResult(map[string]any{"id": id, "unloaded": true})

	case toolGrantPermission:
		id, kind, details, err := permissionArgs(args)
		if err != nil {
			return CallToolResult{}, err
		}
		if err := g.manager.GrantPermission(ctx, id, kind, details); err != nil {
			return CallToolResult{}, err
		}
		return jsonResult(map[string]any{"component_id": id, "granted": kind})

	case toolRevokePermission:
		id, kind, details, err := permissionArgs(args)
		if err != nil {
			return CallToolResult{}, err
		}
		if err := g.manager.RevokePermission(ctx, id, kind, details); err != nil {
			return CallToolResult{}, err
		}
		return jsonResult(map[string]any{"component_id": id, "revoked": kind})

	case toolResetPermission:
		id, err := stringArg(args, "component_id")
		if err != nil {
			return CallToolResult{}, err
		}
		if err := g.manager.ResetPermission(ctx, id); err != nil {
			return CallToolResult{}, err
		}
		return jsonResult(map[string]any{"component_id": id, "reset": true})

	case toolAttachPolicy:
		id, err := stringArg(args, "component_id")
		if err != nil {
			return CallToolResult{}, err
		}
		policyURI, err := stringArg(args, "policy_uri")
		if err != nil {
			return CallToolResult{}, err
		}
		if err := g.manager.AttachPolicy(ctx, id, policyURI); err != nil {
			return CallToolResult{}, err
		}
		return jsonResult(map[string]any{"component_id": id, "attached": policyURI})

	case toolDetachPolicy:
		id, err := stringArg(args, "component_id")
		if err != nil {
			return CallToolResult{}, err
		}
		if err := g.manager.DetachPolicy(ctx, id); err != nil {
			return CallToolResult{}, err
		}
		return jsonResult(map[string]any{"component_id": id, "detached": true})

	case toolGetPolicy:
		id, err := stringArg(args, "component_id")
		if err != nil {
			return CallToolResult{}, err
		}
		info, ok := g.manager.GetPolicyInfo(id)
		if !ok {
			return jsonResult(map[string]any{"component_id": id, "policy": nil})
		}
		return jsonResult(map[string]any{"component_id": id, "policy": info})

	case toolListComponents:
		return jsonResult(map[string]any{"components": g.manager.ListComponents()})

	default:
		return CallToolResult{}, fmt.Errorf("unknown built-in tool: %s", name)
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return v, nil
}

func permissionArgs(args map[string]any) (id, kind string, details map[string]any, err error) {
	if id, err = stringArg(args, "component_id"); err != nil {
		return "", "", nil, err
	}
	if kind, err = stringArg(args, "permission_type"); err != nil {
		return "", "", nil, err
	}
	details, _ = args["details"].(map[string]any)
	if details == nil {
		return "", "", nil, fmt.Errorf("missing required argument %q", "details")
	}
	return id, kind, details, nil
}

func jsonResult(v any) (CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return CallToolResult{}, fmt.Errorf("encode result: %w", err)
	}
	return structuredResult(raw), nil
}
