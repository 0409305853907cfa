package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/artifact"
	"github.com/Wasm-Cell/wasmcell/internal/domain/audit"
	wasmpolicy "github.com/Wasm-Cell/wasmcell/internal/domain/policy"
	"github.com/Wasm-Cell/wasmcell/internal/domain/sandbox"
)

func (m *Manager) policyPath(id string) string   { return filepath.Join(m.pluginDir, id+".policy.yaml") }
func (m *Manager) policyMetaPath(id string) string { return filepath.Join(m.pluginDir, id+".policy.meta.json") }

// policyMeta is the sidecar written alongside an attached policy
// (spec §4.6: "{source_uri, attached_at}").
type policyMeta struct {
	SourceURI  string    `json:"source_uri"`
	AttachedAt time.Time `json:"attached_at"`
}

func (m *Manager) requireLoaded(id string) error {
	if _, ok := m.registry.GetComponent(id); !ok {
		return ErrComponentNotFound
	}
	return nil
}

// AttachPolicy downloads policyURI, validates it, installs it as id's
// policy sidecar, and refreshes id's sandbox template (spec §4.6).
func (m *Manager) AttachPolicy(ctx context.Context, id, policyURI string) error {
	if err := m.requireLoaded(id); err != nil {
		return err
	}

	downloaded, err := artifact.Load(ctx, policyURI, artifact.PolicyKind, m.httpClient)
	if err != nil {
		return err
	}
	doc, err := wasmpolicy.ParseFile(downloaded.Path())
	if err != nil {
		return fmt.Errorf("validate policy from %s: %w", policyURI, err)
	}

	if _, err := downloaded.CopyTo(m.pluginDir); err != nil {
		return fmt.Errorf("install policy for %s: %w", id, err)
	}
	// CopyTo names the file after the downloaded basename; rename to the
	// canonical <id>.policy.yaml sidecar name.
	installedPath := filepath.Join(m.pluginDir, filepath.Base(downloaded.Path()))
	if installedPath != m.policyPath(id) {
		if err := os.Rename(installedPath, m.policyPath(id)); err != nil {
			return fmt.Errorf("rename policy sidecar for %s: %w", id, err)
		}
	}

	meta := policyMeta{SourceURI: policyURI, AttachedAt: time.Now()}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode policy metadata for %s: %w", id, err)
	}
	if err := os.WriteFile(m.policyMetaPath(id), metaBytes, 0o644); err != nil {
		return fmt.Errorf("write policy metadata for %s: %w", id, err)
	}

	m.installTemplate(id, sandbox.Build(doc, m.pluginDir), &wasmpolicy.Info{
		PolicyID:    uuid.NewString(),
		SourceURI:   policyURI,
		LocalPath:   m.policyPath(id),
		ComponentID: id,
		CreatedAt:   meta.AttachedAt.Unix(),
	})
	m.record(ctx, uuid.NewString(), audit.EventPolicyAttached, id, "success", policyURI)
	return nil
}

// DetachPolicy removes id's policy sidecar files (best effort) and clears
// its sandbox template back to the manager default.
func (m *Manager) DetachPolicy(ctx context.Context, id string) error {
	if err := m.requireLoaded(id); err != nil {
		return err
	}

	var errs []error
	if err := os.Remove(m.policyPath(id)); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := os.Remove(m.policyMetaPath(id)); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	m.installTemplate(id, m.defaultTemplate, nil)
	m.record(ctx, uuid.NewString(), audit.EventPolicyDetached, id, "success", "")

	if len(errs) > 0 {
		return fmt.Errorf("detach policy for %s: %v", id, errs)
	}
	return nil
}

// GrantPermission validates details against kind, merges the derived rule
// into id's on-disk policy (creating a minimal stub if none exists) with
// de-duplication, writes it back, and refreshes the sandbox template
// (spec §4.6).
func (m *Manager) GrantPermission(ctx context.Context, id, kind string, details map[string]any) error {
	if err := m.requireLoaded(id); err != nil {
		return err
	}

	err := m.withPolicyLock(id, func() error {
		doc, err := m.loadOrStubPolicy(id)
		if err != nil {
			return err
		}
		doc, err = wasmpolicy.Grant(doc, kind, details)
		if err != nil {
			return err
		}
		return m.writePolicyAndRefresh(id, doc)
	})
	if err != nil {
		m.record(ctx, uuid.NewString(), audit.EventPermissionGranted, id, "error", err.Error())
		return err
	}
	m.record(ctx, uuid.NewString(), audit.EventPermissionGranted, id, "success", kind)
	return nil
}

// RevokePermission is Grant's inverse: structural match, no-op on absence.
func (m *Manager) RevokePermission(ctx context.Context, id, kind string, details map[string]any) error {
	if err := m.requireLoaded(id); err != nil {
		return err
	}

	err := m.withPolicyLock(id, func() error {
		doc, err := m.loadOrStubPolicy(id)
		if err != nil {
			return err
		}
		doc = wasmpolicy.Revoke(doc, kind, details)
		return m.writePolicyAndRefresh(id, doc)
	})
	if err != nil {
		return err
	}
	m.record(ctx, uuid.NewString(), audit.EventPermissionRevoked, id, "success", kind)
	return nil
}

// ResetPermission is equivalent to detach followed by re-attaching an
// empty policy document (spec §4.6).
func (m *Manager) ResetPermission(ctx context.Context, id string) error {
	if err := m.requireLoaded(id); err != nil {
		return err
	}

	err := m.withPolicyLock(id, func() error {
		return m.writePolicyAndRefresh(id, wasmpolicy.Reset())
	})
	if err != nil {
		return err
	}
	m.record(ctx, uuid.NewString(), audit.EventPermissionReset, id, "success", "")
	return nil
}

// GetPolicyInfo returns id's attached-policy metadata, or (nil, false)
// when no co-located policy file exists.
func (m *Manager) GetPolicyInfo(id string) (*wasmpolicy.Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[id]
	if !ok || st.policyInfo == nil {
		return nil, false
	}
	info := *st.policyInfo
	return &info, true
}

func (m *Manager) loadOrStubPolicy(id string) (wasmpolicy.Document, error) {
	doc, err := wasmpolicy.ParseFile(m.policyPath(id))
	if err == nil {
		return doc, nil
	}
	if os.IsNotExist(err) {
		return wasmpolicy.Empty(), nil
	}
	return wasmpolicy.Document{}, fmt.Errorf("load policy for %s: %w", id, err)
}

func (m *Manager) writePolicyAndRefresh(id string, doc wasmpolicy.Document) error {
	if err := wasmpolicy.WriteFile(doc, m.policyPath(id)); err != nil {
		return fmt.Errorf("write policy for %s: %w", id, err)
	}
	m.installTemplate(id, sandbox.Build(doc, m.pluginDir), m.existingPolicyInfo(id))
	return nil
}

func (m *Manager) existingPolicyInfo(id string) *wasmpolicy.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.states[id]; ok {
		return st.policyInfo
	}
	return nil
}

func (m *Manager) installTemplate(id string, tmpl sandbox.Template, info *wasmpolicy.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		st = &componentState{}
		m.states[id] = st
	}
	st.template = tmpl
	st.policyInfo = info
}

// loadPolicyInfo reads a policy sidecar's metadata file during the startup
// scan, tolerating its absence (an older sidecar written before metadata
// existed, for instance).
func (m *Manager) loadPolicyInfo(id, policyPath string) *wasmpolicy.Info {
	metaBytes, err := os.ReadFile(m.policyMetaPath(id))
	if err != nil {
		return &wasmpolicy.Info{ComponentID: id, LocalPath: policyPath}
	}
	var meta policyMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return &wasmpolicy.Info{ComponentID: id, LocalPath: policyPath}
	}
	return &wasmpolicy.Info{
		SourceURI:   meta.SourceURI,
		LocalPath:   policyPath,
		ComponentID: id,
		CreatedAt:   meta.AttachedAt.Unix(),
	}
}
