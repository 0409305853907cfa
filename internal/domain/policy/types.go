// Package policy implements the Policy Document: the on-disk capability
// grammar (storage/network/environment/runtime/resources/ipc permissions),
// its validator, and the grant/revoke/reset merge semantics a component's
// policy is mutated through.
package policy

// Document is the semantic (not wire) shape of a policy file, per spec §3.
type Document struct {
	Version     string       `yaml:"version"`
	Description string       `yaml:"description,omitempty"`
	Permissions *Permissions `yaml:"permissions,omitempty"`

	// Custom holds grant/revoke kinds this core does not interpret (spec
	// §4.6). Not part of the upstream wire grammar in §6; persisted under
	// its own top-level key so round-tripping a file without it is a no-op.
	Custom []CustomRule `yaml:"custom,omitempty"`
}

// SupportedVersion is the only accepted Document.Version today (spec §3).
const SupportedVersion = "1.0"

// Empty returns the default-deny policy document: a minimal, valid stub
// with no permissions granted (spec §4.6, reset_permission).
func Empty() Document {
	return Document{Version: SupportedVersion}
}

// Permissions holds every capability category the policy grammar covers.
// Only storage, network, and environment are enforced by this host; the
// rest are persisted and surfaced, never enforced (spec §3).
type Permissions struct {
	Storage     *StoragePermissions     `yaml:"storage,omitempty"`
	Network     *NetworkPermissions     `yaml:"network,omitempty"`
	Environment *EnvironmentPermissions `yaml:"environment,omitempty"`
	Runtime     *Runtime                `yaml:"runtime,omitempty"`
	Resources   *ResourceLimits         `yaml:"resources,omitempty"`
	IPC         *IPCPermissions         `yaml:"ipc,omitempty"`
}

// AccessType is one permitted storage operation.
type AccessType string

const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
)

// StorageRule grants access to a glob-matched storage URI.
type StorageRule struct {
	URI    string       `yaml:"uri"`
	Access []AccessType `yaml:"access"`
}

type StoragePermissions struct {
	Allow []StorageRule `yaml:"allow,omitempty"`
	Deny  []StorageRule `yaml:"deny,omitempty"`
}

// NetworkRule is an untagged union on the wire: exactly one of Host or CIDR
// is set, distinguished by which YAML key is present (spec §6).
type NetworkRule struct {
	Host string `yaml:"host,omitempty"`
	CIDR string `yaml:"cidr,omitempty"`
}

// IsCIDR reports whether this rule is the CIDR arm of the union.
func (r NetworkRule) IsCIDR() bool { return r.CIDR != "" }

type NetworkPermissions struct {
	Allow []NetworkRule `yaml:"allow,omitempty"`
	Deny  []NetworkRule `yaml:"deny,omitempty"`
}

// EnvironmentRule allows a single environment variable key through.
type EnvironmentRule struct {
	Key string `yaml:"key"`
}

// EnvironmentPermissions is allow-only: there is no deny arm (spec §3).
type EnvironmentPermissions struct {
	Allow []EnvironmentRule `yaml:"allow,omitempty"`
}

// Capability is a Linux capability name, UPPERCASE on the wire (spec §6).
type Capability string

const (
	CapAll            Capability = "ALL"
	CapNetBindService Capability = "NET_BIND_SERVICE"
	CapSysAdmin       Capability = "SYS_ADMIN"
	CapSysTime        Capability = "SYS_TIME"
)

type DockerCapabilities struct {
	Drop []Capability `yaml:"drop,omitempty"`
	Add  []Capability `yaml:"add,omitempty"`
}

type DockerSecurity struct {
	Privileged      *bool               `yaml:"privileged,omitempty"`
	NoNewPrivileges *bool               `yaml:"no_new_privileges,omitempty"`
	Capabilities    *DockerCapabilities `yaml:"capabilities,omitempty"`
}

type DockerRuntime struct {
	Security *DockerSecurity `yaml:"security,omitempty"`
}

// Runtime carries descriptive, unenforced sandboxing metadata (spec §3, §9
// Open Question c).
type Runtime struct {
	Docker     *DockerRuntime `yaml:"docker,omitempty"`
	Hyperlight map[string]any `yaml:"hyperlight,omitempty"`
}

// ResourceLimits is descriptive metadata, not enforced by this core.
type ResourceLimits struct {
	CPU    *float64 `yaml:"cpu,omitempty"`
	Memory *int64   `yaml:"memory,omitempty"`
	IO     *int64   `yaml:"io,omitempty"`
}

// IPCRule is reserved; not enforced (spec §3).
type IPCRule struct {
	URI string `yaml:"uri"`
}

type IPCPermissions struct {
	Allow []IPCRule `yaml:"allow,omitempty"`
	Deny  []IPCRule `yaml:"deny,omitempty"`
}

// Info describes a policy's attachment state, returned to clients by
// get_policy_info (spec §3).
type Info struct {
	PolicyID    string
	SourceURI   string
	LocalPath   string
	ComponentID string
	CreatedAt   int64 // unix seconds
}
