package toolgateway

import "github.com/Wasm-Cell/wasmcell/internal/domain/schema"

// Built-in tool names (spec §4.8).
const (
	toolLoadComponent    = "load-component"
	toolUnloadComponent  = "unload-component"
	toolGrantPermission  = "grant-permission"
	toolRevokePermission = "revoke-permission"
	toolResetPermission  = "reset-permission"
	toolAttachPolicy     = "attach-policy"
	toolDetachPolicy     = "detach-policy"
	toolGetPolicy        = "get-policy"
	toolListComponents   = "list-components"
)

func objectSchema(props map[string]any, required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{"type": "object", "properties": props, "required": req}
}

func stringProp() map[string]any { return map[string]any{"type": "string"} }
func objectProp() map[string]any { return map[string]any{"type": "object"} }

// builtinTools returns the nine built-in tool descriptors, each with a
// simple object inputSchema naming its required fields (spec §4.8).
func builtinTools() []schema.ToolDescriptor {
	return []schema.ToolDescriptor{
		{
			Name:        toolLoadComponent,
			Description: "Loads a WebAssembly component from a file, OCI, or HTTPS URI.",
			InputSchema: objectSchema(map[string]any{"path": stringProp()}, "path"),
		},
		{
			Name:        toolUnloadComponent,
			Description: "Unloads a loaded component without deleting its artifact.",
			InputSchema: objectSchema(map[string]any{"id": stringProp()}, "id"),
		},
		{
			Name:        toolGrantPermission,
			Description: "Grants a permission rule to a loaded component's policy.",
			InputSchema: objectSchema(map[string]any{
				"component_id":    stringProp(),
				"permission_type": stringProp(),
				"details":         objectProp(),
			}, "component_id", "permission_type", "details"),
		},
		{
			Name:        toolRevokePermission,
			Description: "Revokes a previously granted permission rule from a component's policy.",
			InputSchema: objectSchema(map[string]any{
				"component_id":    stringProp(),
				"permission_type": stringProp(),
				"details":         objectProp(),
			}, "component_id", "permission_type", "details"),
		},
		{
			Name:        toolResetPermission,
			Description: "Resets a component's policy to the empty, default-deny document.",
			InputSchema: objectSchema(map[string]any{"component_id": stringProp()}, "component_id"),
		},
		{
			Name:        toolAttachPolicy,
			Description: "Attaches a policy document from a URI to a loaded component.",
			InputSchema: objectSchema(map[string]any{
				"component_id": stringProp(),
				"policy_uri":   stringProp(),
			}, "component_id", "policy_uri"),
		},
		{
			Name:        toolDetachPolicy,
			Description: "Detaches a component's policy, reverting it to the manager default template.",
			InputSchema: objectSchema(map[string]any{"component_id": stringProp()}, "component_id"),
		},
		{
			Name:        toolGetPolicy,
			Description: "Returns a loaded component's attached-policy metadata.",
			InputSchema: objectSchema(map[string]any{"component_id": stringProp()}, "component_id"),
		},
		{
			Name:        toolListComponents,
			Description: "Lists every currently loaded component id.",
			InputSchema: objectSchema(map[string]any{}),
		},
	}
}

func isBuiltin(name string) bool {
	switch name {
	case toolLoadComponent, toolUnloadComponent, toolGrantPermission, toolRevokePermission,
		toolResetPermission, toolAttachPolicy, toolDetachPolicy, toolGetPolicy, toolListComponents:
		return true
	default:
		return false
	}
}

// mutatesToolSet reports whether a built-in call can change the tool map,
// requiring a `tools/list_changed` notification afterward (spec §4.8).
func mutatesToolSet(name string) bool {
	return name == toolLoadComponent || name == toolUnloadComponent
}
