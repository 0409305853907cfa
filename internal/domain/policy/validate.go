package policy

import (
	"fmt"
	"strings"
)

// Validate enforces spec §3's four invariants plus the version check.
// Every failure is wrapped in ErrInvalidPermissions (or ErrUnsupportedVersion
// for the version check) so callers can classify it as InvalidArgument
// (spec §7).
func (d Document) Validate() error {
	if d.Version != SupportedVersion {
		return fmt.Errorf("%w: %q (only %q accepted)", ErrUnsupportedVersion, d.Version, SupportedVersion)
	}
	if d.Permissions == nil {
		return nil
	}
	return d.Permissions.Validate()
}

// Validate checks every enforced rule list. Runtime/Resources/IPC are
// descriptive and carry no grammar beyond their types.
func (p *Permissions) Validate() error {
	if p.Storage != nil {
		for _, r := range p.Storage.Allow {
			if err := validateStorageRule(r); err != nil {
				return err
			}
		}
		for _, r := range p.Storage.Deny {
			if err := validateStorageRule(r); err != nil {
				return err
			}
		}
	}
	if p.Network != nil {
		for _, r := range p.Network.Allow {
			if err := validateNetworkRule(r); err != nil {
				return err
			}
		}
		for _, r := range p.Network.Deny {
			if err := validateNetworkRule(r); err != nil {
				return err
			}
		}
	}
	if p.Environment != nil {
		for _, r := range p.Environment.Allow {
			if err := validateEnvironmentKey(r.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateStorageRule implements invariant 1: non-empty URI; at most two
// consecutive `*`; `**` occupies a whole path segment; no segment mixes `*`
// with other characters except a standalone `*` or `**`.
func validateStorageRule(r StorageRule) error {
	if r.URI == "" {
		return fmt.Errorf("%w: storage URI can't be empty", ErrInvalidPermissions)
	}
	if len(r.Access) == 0 {
		return fmt.Errorf("%w: storage rule %q needs at least one access entry", ErrInvalidPermissions, r.URI)
	}
	if strings.Contains(r.URI, "***") {
		return fmt.Errorf("%w: too many wildcards in %q", ErrInvalidPermissions, r.URI)
	}
	for _, part := range strings.Split(r.URI, "/") {
		if strings.Contains(part, "**") && part != "**" {
			return fmt.Errorf("%w: ** must occupy its own path segment in %q", ErrInvalidPermissions, r.URI)
		}
		if strings.Contains(part, "*") && part != "*" && part != "**" {
			if strings.Count(part, "*") > 1 && !strings.Contains(part, "**") {
				return fmt.Errorf("%w: multiple * in path segment %q", ErrInvalidPermissions, part)
			}
		}
	}
	return nil
}

// validateNetworkRule implements invariant 2 (hosts) and invariant 3
// (CIDRs).
func validateNetworkRule(r NetworkRule) error {
	if r.IsCIDR() {
		if !strings.Contains(r.CIDR, "/") {
			return fmt.Errorf("%w: CIDR needs a slash: %q", ErrInvalidPermissions, r.CIDR)
		}
		return nil
	}
	return validateNetworkHost(r.Host)
}

func validateNetworkHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: host can't be empty", ErrInvalidPermissions)
	}
	if strings.Count(host, "*") > 1 {
		return fmt.Errorf("%w: too many wildcards in host %q", ErrInvalidPermissions, host)
	}
	if strings.Contains(host, "*") && !strings.HasPrefix(host, "*.") && host != "*" {
		return fmt.Errorf("%w: wildcard must be leading *. in %q", ErrInvalidPermissions, host)
	}
	if domainPart, ok := strings.CutPrefix(host, "*."); ok {
		if domainPart == "" || strings.HasSuffix(domainPart, ".") {
			return fmt.Errorf("%w: malformed domain part in %q", ErrInvalidPermissions, host)
		}
	}
	return nil
}

// validateEnvironmentKey implements invariant 4: non-empty, no wildcards.
func validateEnvironmentKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: environment key can't be empty", ErrInvalidPermissions)
	}
	if strings.Contains(key, "*") {
		return fmt.Errorf("%w: no wildcards allowed in environment keys: %q", ErrInvalidPermissions, key)
	}
	return nil
}
