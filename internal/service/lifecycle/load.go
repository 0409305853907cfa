package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/artifact"
	"github.com/Wasm-Cell/wasmcell/internal/domain/audit"
	"github.com/Wasm-Cell/wasmcell/internal/domain/schema"
)

// ChangeNotifier is implemented by the Tool Gateway to receive
// `tools/list_changed` notifications after a mutating built-in
// (spec §4.8).
type ChangeNotifier interface {
	NotifyToolsListChanged()
}

// SetChangeNotifier wires the Tool Gateway in after construction, since
// the gateway itself depends on the Manager it's notified by.
func (m *Manager) SetChangeNotifier(n ChangeNotifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

func (m *Manager) notifyToolsListChanged() {
	m.mu.RLock()
	n := m.notifier
	m.mu.RUnlock()
	if n != nil {
		n.NotifyToolsListChanged()
	}
}

// LoadComponent implements spec §4.6's load_component under strict
// rollback: a failure at any step leaves the registry exactly as it was
// before the call (except step 6's narrower rollback, noted inline).
func (m *Manager) LoadComponent(ctx context.Context, uri string) (id string, result LoadResult, err error) {
	correlation := uuid.NewString()

	downloaded, err := artifact.Load(ctx, uri, artifact.ComponentKind, m.httpClient)
	if err != nil {
		m.record(ctx, correlation, audit.EventComponentLoaded, "", "error", err.Error())
		return "", 0, err
	}

	wasmBytes, err := os.ReadFile(downloaded.Path())
	if err != nil {
		err = fmt.Errorf("failed to compile component from path: %s: %w", downloaded.Path(), err)
		m.record(ctx, correlation, audit.EventComponentLoaded, "", "error", err.Error())
		return "", 0, err
	}

	compiled, err := m.engine.Compile(ctx, wasmBytes)
	if err != nil {
		err = fmt.Errorf("failed to compile component from path: %s: %w", downloaded.Path(), err)
		m.record(ctx, correlation, audit.EventComponentLoaded, "", "error", err.Error())
		return "", 0, err
	}

	id = componentIDFromPath(downloaded.Path())
	tools := schema.ExportsToTools(compiled)

	_, existed := m.registry.GetComponent(id)

	if err := m.registry.RegisterAndInstall(id, compiled, tools); err != nil {
		m.record(ctx, correlation, audit.EventComponentLoaded, id, "error", err.Error())
		return "", 0, err
	}

	if _, err := downloaded.CopyTo(m.pluginDir); err != nil {
		// Step 6 rollback: undo the registry write to restore consistency.
		m.registry.Unregister(id)
		err = fmt.Errorf("copy component artifact into plugin directory: %w", err)
		m.record(ctx, correlation, audit.EventComponentLoaded, id, "error", err.Error())
		return "", 0, err
	}

	m.mu.Lock()
	if _, ok := m.states[id]; !ok {
		m.states[id] = &componentState{template: m.defaultTemplate}
	}
	m.mu.Unlock()

	result = LoadResultNew
	if existed {
		result = LoadResultReplaced
	}

	m.metrics.componentsLoaded.Inc()
	m.record(ctx, correlation, audit.EventComponentLoaded, id, "success", result.String())
	m.notifyToolsListChanged()
	return id, result, nil
}

// componentIDFromPath derives a component id from its artifact's file stem,
// with ':' replaced by '_' (spec §3).
func componentIDFromPath(path string) string {
	base := filepath.Base(path)
	stem := base[:len(base)-len(filepath.Ext(base))]
	return strings.ReplaceAll(stem, ":", "_")
}

// UnloadComponent removes id from the registry and in-memory state but
// leaves the on-disk artifact untouched. Idempotent: an unknown id is a
// no-op (spec §4.6).
func (m *Manager) UnloadComponent(ctx context.Context, id string) {
	m.registry.Unregister(id)
	m.mu.Lock()
	delete(m.states, id)
	m.mu.Unlock()

	m.metrics.componentsUnloaded.Inc()
	m.record(ctx, uuid.NewString(), audit.EventComponentUnloaded, id, "success", "")
	m.notifyToolsListChanged()
}

// UninstallComponent unloads id then deletes its artifact from disk.
func (m *Manager) UninstallComponent(ctx context.Context, id string) error {
	m.UnloadComponent(ctx, id)

	path := filepath.Join(m.pluginDir, id+".wasm")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		err = fmt.Errorf("delete component artifact %s: %w", path, err)
		m.record(ctx, uuid.NewString(), audit.EventComponentUninstall, id, "error", err.Error())
		return err
	}
	m.record(ctx, uuid.NewString(), audit.EventComponentUninstall, id, "success", "")
	return nil
}

// record is a best-effort audit append; a nil auditStore (e.g. in tests)
// is a no-op.
func (m *Manager) record(ctx context.Context, correlationID string, kind audit.LifecycleEventKind, componentID, outcome, detail string) {
	if m.auditStore == nil {
		return
	}
	_ = m.auditStore.Append(ctx, audit.LifecycleRecord{
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
		Kind:          kind,
		ComponentID:   componentID,
		Outcome:       outcome,
		Detail:        detail,
	})
}
