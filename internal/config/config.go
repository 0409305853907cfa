// Package config provides configuration types for the WasmCell host.
package config

import "os"

// WasmCellConfig is the top-level configuration for the WasmCell host.
type WasmCellConfig struct {
	// PluginDir is the directory the Lifecycle Manager scans at startup and
	// installs loaded component artifacts into.
	PluginDir string `yaml:"plugin_dir" mapstructure:"plugin_dir" validate:"required"`

	// DefaultPolicyFile is the policy document applied to every component
	// that has not been given its own attached policy. Empty means the
	// empty, default-deny template.
	DefaultPolicyFile string `yaml:"default_policy_file" mapstructure:"default_policy_file"`

	// AuditDBPath is where the sqlite-backed lifecycle/call audit log is
	// stored. Defaults to "<plugin_dir>/audit.db".
	AuditDBPath string `yaml:"audit_db_path" mapstructure:"audit_db_path"`

	// Server configures the optional HTTP transport.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Transport is validated as "stdio" (default) or "http". The start
	// command does not read it: it always serves stdio and adds HTTP only
	// when run with --http.
	Transport string `yaml:"transport" mapstructure:"transport" validate:"omitempty,oneof=stdio http"`

	// OCIPullTimeout bounds an oci:// component fetch (e.g. "60s").
	OCIPullTimeout string `yaml:"oci_pull_timeout" mapstructure:"oci_pull_timeout" validate:"omitempty"`

	// ArtifactDownloadTimeout bounds an https:// component fetch (e.g. "30s").
	ArtifactDownloadTimeout string `yaml:"artifact_download_timeout" mapstructure:"artifact_download_timeout" validate:"omitempty"`

	// DevMode relaxes logging verbosity for local iteration.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the optional HTTP listener that `start --http`
// runs.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g. "127.0.0.1:9090").
	// Defaults to "127.0.0.1:9090" if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *WasmCellConfig) SetDefaults() {
	if c.PluginDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.PluginDir = home + "/.wasmcell/components"
		} else {
			c.PluginDir = "./components"
		}
	}
	if c.AuditDBPath == "" {
		c.AuditDBPath = c.PluginDir + "/audit.db"
	}
	if c.Transport == "" {
		c.Transport = "stdio"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:9090"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.OCIPullTimeout == "" {
		c.OCIPullTimeout = "60s"
	}
	if c.ArtifactDownloadTimeout == "" {
		c.ArtifactDownloadTimeout = "30s"
	}
}

// SetDevDefaults applies permissive defaults for development mode, applied
// before validation so required fields are satisfied with minimal config.
func (c *WasmCellConfig) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Server.LogLevel == "" || c.Server.LogLevel == "info" {
		c.Server.LogLevel = "debug"
	}
}
