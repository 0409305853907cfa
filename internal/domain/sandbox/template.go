// Package sandbox implements the Sandbox Template Builder: deriving the
// immutable, policy-derived host-context description a component is
// instantiated with.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Wasm-Cell/wasmcell/internal/domain/policy"
)

// Permission bits for PreopenedDir.DirPerms/FilePerms, matching
// wasmtime_wasi's DirPerms/FilePerms bitsets (spec §3).
const (
	PermRead   uint8 = 1 << 0
	PermWrite  uint8 = 1 << 1
	PermMutate uint8 = 1 << 2
)

// PreopenedDir is one guest-visible directory mapping.
type PreopenedDir struct {
	HostPath  string
	GuestPath string
	DirPerms  uint8
	FilePerms uint8
}

// AllowedHost is a host the HTTP Host Filter will permit outbound requests
// to (spec §4.7); Scheme is empty for a scheme-agnostic entry.
type AllowedHost struct {
	Scheme string
	Host   string
}

// NetworkPerms mirrors wasmtime_wasi's socket-capability booleans.
type NetworkPerms struct {
	TCP bool
	UDP bool
	DNS bool
}

// Template is the concrete, policy-derived host context (spec §3).
type Template struct {
	AllowStdout bool
	AllowStderr bool
	AllowArgs   bool

	Network NetworkPerms

	AllowedHosts  []AllowedHost
	PreopenedDirs []PreopenedDir
	ConfigVars    map[string]string
}

// Empty is the default-deny template: no preopens, no allowed hosts, no
// env, network booleans false (spec §4.5).
func Empty() Template {
	return Template{
		AllowStdout: true,
		AllowStderr: true,
		AllowArgs:   true,
		ConfigVars:  map[string]string{},
	}
}

// Build derives a Template from a policy document and the plugin directory
// the component's artifact lives in, per spec §4.5.
func Build(doc policy.Document, pluginDir string) Template {
	t := Empty()
	if doc.Permissions == nil {
		return t
	}

	t.ConfigVars = extractEnvVars(doc.Permissions)
	t.Network = extractNetworkPerms(doc.Permissions)
	t.AllowedHosts = extractAllowedHosts(doc.Permissions)
	t.PreopenedDirs = extractPreopenedDirs(doc.Permissions, pluginDir)
	return t
}

// extractEnvVars implements step 1: for each environment.allow[].key, read
// the current host process env; keys not present are silently omitted.
func extractEnvVars(p *policy.Permissions) map[string]string {
	vars := map[string]string{}
	if p.Environment == nil {
		return vars
	}
	for _, rule := range p.Environment.Allow {
		if v, ok := os.LookupEnv(rule.Key); ok {
			vars[rule.Key] = v
		}
	}
	return vars
}

// extractNetworkPerms implements step 2: tcp/udp/dns are all true iff the
// policy lists any network allow entry.
func extractNetworkPerms(p *policy.Permissions) NetworkPerms {
	hasAny := p.Network != nil && len(p.Network.Allow) > 0
	return NetworkPerms{TCP: hasAny, UDP: hasAny, DNS: hasAny}
}

// extractAllowedHosts implements step 3: only host-shaped allow entries
// contribute; CIDR entries are socket-level policy outside this core.
func extractAllowedHosts(p *policy.Permissions) []AllowedHost {
	if p.Network == nil {
		return nil
	}
	var out []AllowedHost
	for _, rule := range p.Network.Allow {
		if rule.IsCIDR() {
			continue
		}
		scheme, host := splitSchemeHost(rule.Host)
		out = append(out, AllowedHost{Scheme: scheme, Host: host})
	}
	return out
}

func splitSchemeHost(raw string) (scheme, host string) {
	if idx := strings.Index(raw, "://"); idx >= 0 {
		return raw[:idx], raw[idx+3:]
	}
	return "", raw
}

// extractPreopenedDirs implements step 4: for each fs://<rel> storage
// allow, resolve plugin_dir/rel on the host and expose it as <rel> to the
// guest, with duplicate access entries folded by bitwise-OR.
func extractPreopenedDirs(p *policy.Permissions, pluginDir string) []PreopenedDir {
	if p.Storage == nil {
		return nil
	}
	var out []PreopenedDir
	for _, rule := range p.Storage.Allow {
		rel, ok := strings.CutPrefix(rule.URI, "fs://")
		if !ok {
			continue
		}
		filePerms, dirPerms := calculatePermissions(rule.Access)
		out = append(out, PreopenedDir{
			HostPath:  filepath.Join(pluginDir, rel),
			GuestPath: rel,
			DirPerms:  dirPerms,
			FilePerms: filePerms,
		})
	}
	return out
}

// calculatePermissions folds an access list into file/dir permission
// bitsets: file_perms = READ iff read∈access | WRITE iff write∈access;
// dir_perms = READ | (READ|MUTATE iff write∈access). The fold is
// idempotent and commutative over duplicate entries (spec §4.5, §8).
func calculatePermissions(access []policy.AccessType) (filePerms, dirPerms uint8) {
	for _, a := range access {
		switch a {
		case policy.AccessRead:
			filePerms |= PermRead
			dirPerms |= PermRead
		case policy.AccessWrite:
			filePerms |= PermWrite
			dirPerms |= PermRead | PermMutate
		}
	}
	return filePerms, dirPerms
}
