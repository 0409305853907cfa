// Package component implements the Component Registry: the in-memory
// single-lock pairing of compiled components and the inverted tool→
// components index the Tool Gateway dispatches against.
package component

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Wasm-Cell/wasmcell/internal/domain/schema"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// ErrNoToolsArray is returned by Register when a schema carries no tools.
var ErrNoToolsArray = errors.New("schema does not contain tools array")

// ToolInfo is the unit stored in the inverted index (spec §3): a tool
// belongs to exactly one component, but a tool name may resolve to several
// ToolInfos across different components.
type ToolInfo struct {
	ComponentID string
	Tool        schema.ToolDescriptor
}

// Registry keeps compiled components keyed by id, and the tool_map/
// component_map pair consistent behind one reader-writer lock, per spec §3
// and §5 ("single lock to keep the pair consistent").
type Registry struct {
	mu sync.RWMutex

	components  map[string]outbound.Component
	toolMap     map[string][]ToolInfo
	componentMap map[string][]string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		components:   make(map[string]outbound.Component),
		toolMap:      make(map[string][]ToolInfo),
		componentMap: make(map[string][]string),
	}
}

// Register indexes a compiled component's schema tools under id. It does
// not itself store the compiled component; RegisterAndInstall performs the
// unregister-then-register step (spec §4.6 step 5) and the compiled-
// component swap under the same critical section.
func (r *Registry) Register(id string, tools []schema.ToolDescriptor) error {
	if tools == nil {
		return ErrNoToolsArray
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unregisterLocked(id)

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		r.toolMap[t.Name] = append(r.toolMap[t.Name], ToolInfo{ComponentID: id, Tool: t})
		names = append(names, t.Name)
	}
	r.componentMap[id] = names
	return nil
}

// Unregister removes id's entries from both maps. Idempotent: an unknown id
// is a no-op (spec §4.3, §8 "Idempotent unregister").
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(id)
}

func (r *Registry) unregisterLocked(id string) {
	names, ok := r.componentMap[id]
	if !ok {
		return
	}
	for _, name := range names {
		infos := r.toolMap[name]
		filtered := infos[:0]
		for _, info := range infos {
			if info.ComponentID != id {
				filtered = append(filtered, info)
			}
		}
		if len(filtered) == 0 {
			delete(r.toolMap, name)
		} else {
			r.toolMap[name] = filtered
		}
	}
	delete(r.componentMap, id)
	delete(r.components, id)
}

// installComponentLocked inserts the compiled component for id. Callers hold the
// registry's write lock across this and the preceding Register call by
// calling both through RegisterAndInstall.
func (r *Registry) installComponentLocked(id string, c outbound.Component) {
	r.components[id] = c
}

// RegisterAndInstall performs the unregister-then-register-then-install
// sequence atomically under one write-lock acquisition, matching spec §4.6
// step 5's requirement that list_tools observers never see a partially
// updated state.
func (r *Registry) RegisterAndInstall(id string, c outbound.Component, tools []schema.ToolDescriptor) error {
	if tools == nil {
		return ErrNoToolsArray
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unregisterLocked(id)

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		r.toolMap[t.Name] = append(r.toolMap[t.Name], ToolInfo{ComponentID: id, Tool: t})
		names = append(names, t.Name)
	}
	r.componentMap[id] = names
	r.installComponentLocked(id, c)
	return nil
}

// ToolInfo returns the tool-infos registered for name, or (nil, false) when
// unknown or empty.
func (r *Registry) ToolInfo(name string) ([]ToolInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos, ok := r.toolMap[name]
	if !ok || len(infos) == 0 {
		return nil, false
	}
	out := make([]ToolInfo, len(infos))
	copy(out, infos)
	return out, true
}

// ListTools concatenates every descriptor across every tool_map entry.
func (r *Registry) ListTools() []schema.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []schema.ToolDescriptor
	for _, infos := range r.toolMap {
		for _, info := range infos {
			out = append(out, info.Tool)
		}
	}
	return out
}

// ListComponents returns every registered component id.
func (r *Registry) ListComponents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.components))
	for id := range r.components {
		out = append(out, id)
	}
	return out
}

// GetComponent returns the compiled component for id, or (nil, false).
func (r *Registry) GetComponent(id string) (outbound.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[id]
	return c, ok
}

// ErrToolNotFound and ErrAmbiguousTool are returned by ComponentIDForTool.
var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrAmbiguousTool = errors.New("ambiguous tool")
)

// ComponentIDForTool resolves a tool name to its single owning component id.
func (r *Registry) ComponentIDForTool(name string) (string, error) {
	infos, ok := r.ToolInfo(name)
	if !ok {
		return "", ErrToolNotFound
	}
	if len(infos) > 1 {
		ids := make([]string, len(infos))
		for i, info := range infos {
			ids[i] = info.ComponentID
		}
		return "", fmt.Errorf("%w: multiple components found for tool '%s': %v", ErrAmbiguousTool, name, ids)
	}
	return infos[0].ComponentID, nil
}

// Consistent reports whether the tool_map/component_map invariant from
// spec §3 holds: every tool_info's component id appears in that
// component's component_map entry, and vice versa. Exposed for tests.
func (r *Registry) Consistent() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, infos := range r.toolMap {
		for _, info := range infos {
			names := r.componentMap[info.ComponentID]
			if !containsString(names, name) {
				return false
			}
		}
	}
	for id, names := range r.componentMap {
		for _, name := range names {
			infos := r.toolMap[name]
			found := false
			for _, info := range infos {
				if info.ComponentID == id {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
