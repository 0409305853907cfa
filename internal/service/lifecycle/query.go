package lifecycle

import (
	"github.com/Wasm-Cell/wasmcell/internal/domain/schema"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// ListComponents returns every loaded component id.
func (m *Manager) ListComponents() []string {
	return m.registry.ListComponents()
}

// GetComponent returns the compiled component for id, or (nil, false).
func (m *Manager) GetComponent(id string) (outbound.Component, bool) {
	return m.registry.GetComponent(id)
}

// GetComponentSchema returns id's tool descriptors as a JSON-able value,
// or (nil, false) when id isn't loaded.
func (m *Manager) GetComponentSchema(id string) ([]schema.ToolDescriptor, bool) {
	c, ok := m.registry.GetComponent(id)
	if !ok {
		return nil, false
	}
	return schema.ExportsToTools(c), true
}

// ListTools concatenates every component's tool descriptors.
func (m *Manager) ListTools() []schema.ToolDescriptor {
	return m.registry.ListTools()
}

// GetComponentIDForTool resolves name to its single owning component id,
// per spec §4.6's three-way outcome (unique id / ambiguous / not found).
func (m *Manager) GetComponentIDForTool(name string) (string, error) {
	return m.registry.ComponentIDForTool(name)
}
