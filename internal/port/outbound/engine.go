// Package outbound declares the ports this host needs from its external
// collaborators: the component engine (compile/instantiate/invoke) and the
// artifact transport (fetch a URI to local bytes). Both are specified here
// as black boxes per the host's scope; concrete adapters live under
// internal/adapter/outbound.
package outbound

import (
	"context"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
)

// NodeKind discriminates an export-tree node. Only Function, SubComponent,
// and Instance are traversed by the Schema Registry; the rest are terminal
// and ignored.
type NodeKind int

const (
	NodeFunction NodeKind = iota
	NodeSubComponent
	NodeInstance
	NodeCoreFunction
	NodeCoreModule
	NodeType
	NodeResourceType
)

// ExportNode is one entry in a compiled component's export tree.
type ExportNode struct {
	Kind NodeKind

	// ExportName is the name this node is exported under by its parent; the
	// empty string for an anonymous/default export.
	ExportName string

	// Signature is populated when Kind == NodeFunction.
	Signature wasmtype.FuncSignature

	// Children is populated when Kind is NodeSubComponent or NodeInstance.
	Children []ExportNode
}

// Component is a compiled, engine-resident artifact: opaque except for its
// enumerable export tree and an id the engine can invoke exports against.
type Component interface {
	// Exports returns the top-level export tree nodes in the engine's
	// stable enumeration order for this compiled component.
	Exports() []ExportNode
}

// Instance is a running instantiation of a Component under a given sandbox
// configuration, ready to have exports invoked against it.
type Instance interface {
	// Call invokes the export identified by its fully-qualified dotted path
	// (the same name the Schema Registry produced) with positional typed
	// arguments, returning positional typed results.
	Call(ctx context.Context, exportPath string, args []wasmtype.Val) ([]wasmtype.Val, error)

	// Close releases any engine-side resources held by this instantiation.
	Close(ctx context.Context) error
}

// HostContext is the engine-facing projection of a Sandbox Template: the
// concrete WASI configuration an Instance is instantiated with. Declared
// here (rather than in domain/sandbox) so the port doesn't import the
// adapter-facing shape; adapters translate domain/sandbox.Template into one
// of these.
type HostContext struct {
	AllowStdout bool
	AllowStderr bool
	AllowArgs   bool

	TCP bool
	UDP bool
	DNS bool

	AllowedHosts []HostContextAllowedHost
	Preopens     []HostContextPreopen
	EnvVars      map[string]string
}

type HostContextAllowedHost struct {
	Scheme string // empty means scheme-agnostic
	Host   string
}

type HostContextPreopen struct {
	HostPath  string
	GuestPath string
	DirPerms  uint8
	FilePerms uint8
}

// Engine is the black-box WebAssembly component engine: it compiles binary
// modules, and instantiates compiled components under a host context.
type Engine interface {
	// Compile validates and compiles component bytes into an engine-resident
	// artifact whose export tree can be enumerated.
	Compile(ctx context.Context, wasmBytes []byte) (Component, error)

	// Instantiate creates a running Instance of a compiled component under
	// the given host context.
	Instantiate(ctx context.Context, c Component, hc HostContext) (Instance, error)
}
