// Package fake provides an in-memory outbound.Engine double: no wasmtime
// dependency, export trees and call behavior are supplied by the test, and
// every Instantiate call is recorded so tests can assert on the host
// context a policy produced (the engine being an external black box per
// spec §1, this is the only engine a unit test should need).
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// CallFunc implements one export's behavior for a fake instance.
type CallFunc func(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error)

// Component is a canned export tree plus canned call behavior.
type Component struct {
	ExportTree []outbound.ExportNode
	Calls      map[string]CallFunc
	CompileErr error
}

func (c *Component) Exports() []outbound.ExportNode { return c.ExportTree }

// Instance wraps a Component with the HostContext it was instantiated
// under, so test code can assert on sandbox wiring.
type Instance struct {
	component *Component
	HostCtx   outbound.HostContext
	closed    bool
	mu        sync.Mutex
}

func (i *Instance) Call(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, fmt.Errorf("instance closed: cannot call %s", exportPath)
	}
	fn, ok := i.component.Calls[exportPath]
	if !ok {
		return nil, fmt.Errorf("fake engine: no call behavior registered for %s", exportPath)
	}
	return fn(ctx, exportPath, args)
}

func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}

// Engine registers canned Components by an opaque compile token (the bytes
// passed to Compile) and records every Instantiate call it serves.
type Engine struct {
	mu           sync.Mutex
	byBytes      map[string]*Component
	Instantiated []Instantiation
}

// Instantiation records one Instantiate call for later assertion.
type Instantiation struct {
	Component *Component
	HostCtx   outbound.HostContext
}

func New() *Engine {
	return &Engine{byBytes: map[string]*Component{}}
}

// Register associates wasmBytes with a canned Component; Compile looks
// this up verbatim.
func (e *Engine) Register(wasmBytes []byte, c *Component) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byBytes[string(wasmBytes)] = c
}

func (e *Engine) Compile(ctx context.Context, wasmBytes []byte) (outbound.Component, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.byBytes[string(wasmBytes)]
	if !ok {
		return nil, fmt.Errorf("fake engine: no component registered for these bytes")
	}
	if c.CompileErr != nil {
		return nil, c.CompileErr
	}
	return c, nil
}

func (e *Engine) Instantiate(ctx context.Context, c outbound.Component, hc outbound.HostContext) (outbound.Instance, error) {
	fc, ok := c.(*Component)
	if !ok {
		return nil, fmt.Errorf("fake engine: component was not compiled by this engine")
	}
	e.mu.Lock()
	e.Instantiated = append(e.Instantiated, Instantiation{Component: fc, HostCtx: hc})
	e.mu.Unlock()
	return &Instance{component: fc, HostCtx: hc}, nil
}
