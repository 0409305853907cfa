package audit

import (
	"context"
	"time"
)

// LifecycleEventKind enumerates the component/policy/call events the
// embedded audit trail records (SPEC_FULL.md §12, "Call/lifecycle audit
// trail" — restoring the original's src/database.rs run history).
type LifecycleEventKind string

const (
	EventComponentLoaded     LifecycleEventKind = "component_loaded"
	EventComponentUnloaded   LifecycleEventKind = "component_unloaded"
	EventComponentUninstall  LifecycleEventKind = "component_uninstalled"
	EventPolicyAttached      LifecycleEventKind = "policy_attached"
	EventPolicyDetached      LifecycleEventKind = "policy_detached"
	EventPermissionGranted   LifecycleEventKind = "permission_granted"
	EventPermissionRevoked   LifecycleEventKind = "permission_revoked"
	EventPermissionReset     LifecycleEventKind = "permission_reset"
	EventToolCalled          LifecycleEventKind = "tool_called"
)

// LifecycleRecord is one append-only row: a component/policy mutation or a
// tool invocation, always tagged with a correlation ID so a single
// `execute_component_call` can be traced across its JSON-RPC request, its
// typed-value marshaling, and its outcome.
type LifecycleRecord struct {
	ID            int64
	CorrelationID string
	Timestamp     time.Time
	Kind          LifecycleEventKind
	ComponentID   string
	ToolName      string
	Outcome       string // "success" or "error"
	Detail        string // free-text: error message, granted permission summary, etc.
}

// LifecycleFilter narrows a Query call; zero values mean "unconstrained".
type LifecycleFilter struct {
	ComponentID string
	Kind        LifecycleEventKind
	Since       time.Time
	Limit       int
}

// LifecycleStore persists LifecycleRecords. Purely observational: nothing
// in the Lifecycle Manager or Tool Gateway blocks on a write succeeding.
type LifecycleStore interface {
	Append(ctx context.Context, rec LifecycleRecord) error
	Query(ctx context.Context, filter LifecycleFilter) ([]LifecycleRecord, error)
	Close() error
}
