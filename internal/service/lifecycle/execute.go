package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Wasm-Cell/wasmcell/internal/domain/audit"
	"github.com/Wasm-Cell/wasmcell/internal/domain/sandbox"
	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// ExecuteComponentCall resolves functionName against id's compiled
// component, marshals parametersJSON into typed arguments, invokes the
// export, and marshals the result back to a JSON string (spec §4.6).
func (m *Manager) ExecuteComponentCall(ctx context.Context, id, functionName, parametersJSON string) (string, error) {
	start := time.Now()
	correlation := uuid.NewString()

	ctx, span := tracer.Start(ctx, "execute_component_call")
	defer span.End()
	span.SetAttributes(
		attribute.String("component.id", id),
		attribute.String("function.name", functionName),
		attribute.String("correlation.id", correlation),
	)

	result, err := m.executeComponentCall(ctx, id, functionName, parametersJSON)

	m.metrics.callDuration.Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.metrics.callsFailed.Inc()
		span.SetStatus(codes.Error, err.Error())
	} else {
		m.metrics.callsSucceeded.Inc()
	}
	m.record(ctx, correlation, audit.EventToolCalled, id, outcome, functionName)

	return result, err
}

func (m *Manager) executeComponentCall(ctx context.Context, id, functionName, parametersJSON string) (string, error) {
	compiled, ok := m.registry.GetComponent(id)
	if !ok {
		return "", ErrComponentNotFound
	}

	sig, exportPath, err := resolveFunction(compiled, functionName)
	if err != nil {
		return "", err
	}

	var params any
	if parametersJSON != "" {
		if err := json.Unmarshal([]byte(parametersJSON), &params); err != nil {
			return "", fmt.Errorf("parse parameters json: %w", err)
		}
	}

	args, err := paramsToArgs(params, sig.Params)
	if err != nil {
		return "", fmt.Errorf("convert parameters: %w", err)
	}

	hc := m.hostContextFor(id)

	instance, err := m.engine.Instantiate(ctx, compiled, hc)
	if err != nil {
		return "", fmt.Errorf("instantiate component %s: %w", id, err)
	}
	defer instance.Close(ctx)

	results, err := instance.Call(ctx, exportPath, args)
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", exportPath, err)
	}

	out, err := wasmtype.ValsToJSON(results)
	if err != nil {
		return "", fmt.Errorf("convert results: %w", err)
	}

	if s, ok := out.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(encoded), nil
}

// resolveFunction implements spec §4.6 step 2: function_name splits on the
// first '.'; a prefix is an interface path looked up as a sub-instance,
// else the name resolves directly on the root export tree.
func resolveFunction(c outbound.Component, functionName string) (wasmtype.FuncSignature, string, error) {
	prefix, fn, hasPrefix := strings.Cut(functionName, ".")
	nodes := c.Exports()

	if !hasPrefix {
		for _, n := range nodes {
			if n.Kind == outbound.NodeFunction && n.ExportName == functionName {
				return n.Signature, functionName, nil
			}
		}
		return wasmtype.FuncSignature{}, "", fmt.Errorf("Function not found: %s", functionName)
	}

	for _, n := range nodes {
		if n.ExportName != prefix {
			continue
		}
		if n.Kind != outbound.NodeInstance && n.Kind != outbound.NodeSubComponent {
			continue
		}
		for _, child := range n.Children {
			if child.Kind == outbound.NodeFunction && child.ExportName == fn {
				return child.Signature, functionName, nil
			}
		}
		return wasmtype.FuncSignature{}, "", fmt.Errorf("Function not found in interface: %s.%s", prefix, fn)
	}
	return wasmtype.FuncSignature{}, "", fmt.Errorf("Function not found in interface: %s.%s", prefix, fn)
}

// paramsToArgs applies the Type Projector to the decoded JSON parameters,
// positionally against sig's declared parameter types. inputSchema is an
// object schema with one property per parameter for every arity including
// one, so params is always an object keyed by parameter name, never a bare
// value.
func paramsToArgs(params any, sigParams []wasmtype.NamedType) ([]wasmtype.Val, error) {
	if len(sigParams) == 0 {
		return nil, nil
	}

	obj, ok := params.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object with keys %v", paramNames(sigParams))
	}
	args := make([]wasmtype.Val, len(sigParams))
	for i, p := range sigParams {
		v, err := wasmtype.JSONToValue(obj[p.Name], p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		args[i] = v
	}
	return args, nil
}

func paramNames(params []wasmtype.NamedType) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// hostContextFor projects id's current sandbox template into the engine
// port's HostContext shape.
func (m *Manager) hostContextFor(id string) outbound.HostContext {
	m.mu.RLock()
	st, ok := m.states[id]
	m.mu.RUnlock()

	tmpl := m.defaultTemplate
	if ok {
		tmpl = st.template
	}
	return toHostContext(tmpl)
}

func toHostContext(t sandbox.Template) outbound.HostContext {
	hosts := make([]outbound.HostContextAllowedHost, 0, len(t.AllowedHosts))
	for _, h := range t.AllowedHosts {
		hosts = append(hosts, outbound.HostContextAllowedHost{Scheme: h.Scheme, Host: h.Host})
	}
	preopens := make([]outbound.HostContextPreopen, 0, len(t.PreopenedDirs))
	for _, p := range t.PreopenedDirs {
		preopens = append(preopens, outbound.HostContextPreopen{
			HostPath:  p.HostPath,
			GuestPath: p.GuestPath,
			DirPerms:  p.DirPerms,
			FilePerms: p.FilePerms,
		})
	}
	return outbound.HostContext{
		AllowStdout:  t.AllowStdout,
		AllowStderr:  t.AllowStderr,
		AllowArgs:    t.AllowArgs,
		TCP:          t.Network.TCP,
		UDP:          t.Network.UDP,
		DNS:          t.Network.DNS,
		AllowedHosts: hosts,
		Preopens:     preopens,
		EnvVars:      t.ConfigVars,
	}
}
