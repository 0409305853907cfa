// Package wasmtime is the production outbound.Engine adapter: it compiles
// and instantiates components through bytecodealliance/wasmtime-go,
// translating our HostContext into a wasmtime WASI p2 builder and our
// wasmtype.Val tree into wasmtime component values and back. The engine
// itself is a black box per spec §1; this package is the only seam where
// that box is opened.
package wasmtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	wt "github.com/bytecodealliance/wasmtime-go/v28"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// Adapter implements outbound.Engine against one shared wasmtime.Engine.
// A single wasmtime.Engine amortizes JIT/compilation caches across every
// Compile call the host performs over its lifetime.
type Adapter struct {
	engine *wt.Engine
}

// New builds an Adapter with the component model and epoch interruption enabled,
// matching the teacher's defensive posture toward long-running guest code
// (compare the teacher's context-deadline propagation into its upstream
// MCP transports).
func New() *Adapter {
	cfg := wt.NewConfig()
	cfg.SetWasmComponentModel(true)
	cfg.SetEpochInterruption(true)
	return &Adapter{engine: wt.NewEngineWithConfig(cfg)}
}

// Component wraps a compiled wasmtime component alongside the export tree
// the Schema Registry walks.
type Component struct {
	component *wt.Component
	exports   []outbound.ExportNode
}

func (c *Component) Exports() []outbound.ExportNode { return c.exports }

// Compile validates and compiles wasmBytes, then derives the export tree
// by introspecting the component's type signature.
func (a *Adapter) Compile(ctx context.Context, wasmBytes []byte) (outbound.Component, error) {
	comp, err := wt.NewComponent(a.engine, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile component: %w", err)
	}

	exports, err := deriveExportTree(comp)
	if err != nil {
		return nil, fmt.Errorf("derive export tree: %w", err)
	}

	return &Component{component: comp, exports: exports}, nil
}

// Instance is a running wasmtime component instantiation.
type Instance struct {
	mu       sync.Mutex
	store    *wt.Store
	instance *wt.ComponentInstance
	closed   bool
}

// Instantiate builds a WASI p2 context from hc and instantiates c against
// it, following the Sandbox Template Builder's derived permissions
// (spec §4.5).
func (a *Adapter) Instantiate(ctx context.Context, c outbound.Component, hc outbound.HostContext) (outbound.Instance, error) {
	wc, ok := c.(*Component)
	if !ok {
		return nil, fmt.Errorf("component was not compiled by this adapter")
	}

	store := wt.NewStore(a.engine)

	wasiCfg := wt.NewWasiConfig()
	if hc.AllowStdout {
		wasiCfg.InheritStdout()
	}
	if hc.AllowStderr {
		wasiCfg.InheritStderr()
	}
	if hc.AllowArgs {
		wasiCfg.InheritArgv()
	}
	for k, v := range hc.EnvVars {
		wasiCfg.SetEnv([]string{k}, []string{v})
	}
	for _, p := range hc.Preopens {
		wasiCfg.PreopenDir(p.HostPath, p.GuestPath, dirPerms(p.DirPerms), filePerms(p.FilePerms))
	}
	if hc.TCP || hc.UDP {
		wasiCfg.InheritNetwork()
	}
	store.SetWasi(wasiCfg)

	linker := wt.NewComponentLinker(a.engine)
	if err := linker.DefineWasiP2(); err != nil {
		store.Close()
		return nil, fmt.Errorf("wire wasi p2 host functions: %w", err)
	}
	if err := defineHTTPOutbound(linker, hc.AllowedHosts); err != nil {
		store.Close()
		return nil, fmt.Errorf("wire outbound http filter: %w", err)
	}

	inst, err := linker.Instantiate(store, wc.component)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("instantiate component: %w", err)
	}

	return &Instance{store: store, instance: inst}, nil
}

// Call resolves exportPath (dotted, e.g. "wasi:filesystem/types.list-directory")
// against the instance, marshals args to wasmtime component values, invokes,
// and marshals results back.
func (i *Instance) Call(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, fmt.Errorf("instance closed: cannot call %s", exportPath)
	}

	fn, err := resolveFunc(i.instance, exportPath)
	if err != nil {
		return nil, err
	}

	wtArgs := make([]wt.Val, 0, len(args))
	for _, a := range args {
		v, err := toWasmtimeVal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal argument for %s: %w", exportPath, err)
		}
		wtArgs = append(wtArgs, v)
	}

	results, err := fn.Call(i.store, wtArgs...)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", exportPath, err)
	}

	out := make([]wasmtype.Val, 0, len(results))
	for _, r := range results {
		v, err := fromWasmtimeVal(r)
		if err != nil {
			return nil, fmt.Errorf("unmarshal result from %s: %w", exportPath, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	i.store.Close()
	return nil
}

// resolveFunc walks exportPath's dotted segments through the instance's
// nested instance exports, mirroring the Schema Registry's own traversal
// so a call path always matches a listed tool name exactly.
func resolveFunc(inst *wt.ComponentInstance, exportPath string) (*wt.ComponentFunc, error) {
	segments := strings.Split(exportPath, ".")
	cur := inst
	for idx, seg := range segments {
		if idx == len(segments)-1 {
			fn := cur.GetFunc(seg)
			if fn == nil {
				return nil, fmt.Errorf("no such export: %s", exportPath)
			}
			return fn, nil
		}
		next := cur.GetInstance(seg)
		if next == nil {
			return nil, fmt.Errorf("no such instance export: %s", seg)
		}
		cur = next
	}
	return nil, fmt.Errorf("empty export path")
}

func dirPerms(b uint8) wt.WasiDirPerms {
	var p wt.WasiDirPerms
	if b&1 != 0 {
		p |= wt.WASI_DIR_PERMS_READ
	}
	if b&4 != 0 {
		p |= wt.WASI_DIR_PERMS_MUTATE
	}
	return p
}

func filePerms(b uint8) wt.WasiFilePerms {
	var p wt.WasiFilePerms
	if b&1 != 0 {
		p |= wt.WASI_FILE_PERMS_READ
	}
	if b&2 != 0 {
		p |= wt.WASI_FILE_PERMS_WRITE
	}
	return p
}
