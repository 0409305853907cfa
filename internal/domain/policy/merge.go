package policy

import (
	"fmt"
	"log/slog"
)

// Permission kinds accepted by Grant/Revoke (spec §4.6).
const (
	KindNetwork     = "network"
	KindStorage     = "storage"
	KindEnvironment = "environment"
)

// CustomRule records a grant/revoke kind this core does not interpret, kept
// for future extensibility (spec §4.6: "recorded as a Custom(kind, details)
// rule... not enforced by this core").
type CustomRule struct {
	Kind    string         `yaml:"kind"`
	Details map[string]any `yaml:"details"`
}

// Grant merges a new permission rule into doc with de-duplication, per
// spec §4.6 and the §8 "Access-merge semantics" / "Duplicate suppression"
// properties. It returns a new Document; doc is never mutated in place.
func Grant(doc Document, kind string, details map[string]any) (Document, error) {
	out := doc
	if out.Permissions == nil {
		out.Permissions = &Permissions{}
	} else {
		p := *out.Permissions
		out.Permissions = &p
	}

	switch kind {
	case KindNetwork:
		host, _ := details["host"].(string)
		if host == "" {
			return doc, fmt.Errorf("%w: network grant requires non-empty details.host", ErrInvalidPermissions)
		}
		rule := NetworkRule{Host: host}
		if err := validateNetworkRule(rule); err != nil {
			return doc, err
		}
		out.Permissions.Network = mergeNetworkRule(out.Permissions.Network, rule)

	case KindStorage:
		uri, _ := details["uri"].(string)
		if uri == "" {
			return doc, fmt.Errorf("%w: storage grant requires non-empty details.uri", ErrInvalidPermissions)
		}
		access, err := parseAccessList(details["access"])
		if err != nil {
			return doc, err
		}
		rule := StorageRule{URI: uri, Access: access}
		if err := validateStorageRule(rule); err != nil {
			return doc, err
		}
		out.Permissions.Storage = mergeStorageRule(out.Permissions.Storage, rule)

	case KindEnvironment:
		key, _ := details["key"].(string)
		if key == "" {
			return doc, fmt.Errorf("%w: environment grant requires non-empty details.key", ErrInvalidPermissions)
		}
		if err := validateEnvironmentKey(key); err != nil {
			return doc, err
		}
		out.Permissions.Environment = mergeEnvironmentRule(out.Permissions.Environment, EnvironmentRule{Key: key})

	default:
		slog.Warn("recording unenforced custom permission kind", "kind", kind)
		out.Custom = append(append([]CustomRule{}, out.Custom...), CustomRule{Kind: kind, Details: details})
	}

	return out, nil
}

// Revoke removes a previously granted rule by structural match. Absence is
// a no-op (spec §4.6).
func Revoke(doc Document, kind string, details map[string]any) Document {
	out := doc
	if out.Permissions == nil {
		return out
	}
	p := *out.Permissions
	out.Permissions = &p

	switch kind {
	case KindNetwork:
		host, _ := details["host"].(string)
		if out.Permissions.Network != nil {
			n := *out.Permissions.Network
			n.Allow = removeNetworkRule(n.Allow, NetworkRule{Host: host})
			out.Permissions.Network = &n
		}
	case KindStorage:
		uri, _ := details["uri"].(string)
		if out.Permissions.Storage != nil {
			s := *out.Permissions.Storage
			s.Allow = removeStorageRule(s.Allow, uri)
			out.Permissions.Storage = &s
		}
	case KindEnvironment:
		key, _ := details["key"].(string)
		if out.Permissions.Environment != nil {
			e := *out.Permissions.Environment
			e.Allow = removeEnvironmentRule(e.Allow, key)
			out.Permissions.Environment = &e
		}
	default:
		filtered := out.Custom[:0:0]
		for _, c := range out.Custom {
			if !(c.Kind == kind && detailsEqual(c.Details, details)) {
				filtered = append(filtered, c)
			}
		}
		out.Custom = filtered
	}
	return out
}

// Reset returns the empty (default-deny) document, equivalent to detach
// plus re-attach of an empty policy (spec §4.6).
func Reset() Document {
	return Empty()
}

func parseAccessList(raw any) ([]AccessType, error) {
	items, ok := raw.([]string)
	if !ok {
		if anySlice, ok2 := raw.([]any); ok2 {
			items = make([]string, len(anySlice))
			for i, v := range anySlice {
				s, ok3 := v.(string)
				if !ok3 {
					return nil, fmt.Errorf("%w: storage grant details.access must be strings", ErrInvalidPermissions)
				}
				items[i] = s
			}
		} else {
			return nil, fmt.Errorf("%w: storage grant requires details.access: [string]+", ErrInvalidPermissions)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: storage grant requires at least one access entry", ErrInvalidPermissions)
	}
	out := make([]AccessType, 0, len(items))
	for _, s := range items {
		switch AccessType(s) {
		case AccessRead, AccessWrite:
			out = append(out, AccessType(s))
		default:
			return nil, fmt.Errorf("%w: unknown access entry %q", ErrInvalidPermissions, s)
		}
	}
	return out, nil
}

func mergeNetworkRule(np *NetworkPermissions, rule NetworkRule) *NetworkPermissions {
	if np == nil {
		np = &NetworkPermissions{}
	} else {
		n := *np
		np = &n
	}
	for _, existing := range np.Allow {
		if existing == rule {
			return np
		}
	}
	np.Allow = append(append([]NetworkRule{}, np.Allow...), rule)
	return np
}

func removeNetworkRule(rules []NetworkRule, target NetworkRule) []NetworkRule {
	out := rules[:0:0]
	for _, r := range rules {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

// mergeStorageRule merges access flags by URI (spec §8 "Access-merge
// semantics"): granting the same URI twice with different access lists
// yields one rule whose access is the order-independent, duplicate-free
// union.
func mergeStorageRule(sp *StoragePermissions, rule StorageRule) *StoragePermissions {
	if sp == nil {
		sp = &StoragePermissions{}
	} else {
		s := *sp
		sp = &s
	}
	for i, existing := range sp.Allow {
		if existing.URI == rule.URI {
			merged := append([]AccessType{}, existing.Access...)
			for _, a := range rule.Access {
				if !containsAccess(merged, a) {
					merged = append(merged, a)
				}
			}
			allow := append([]StorageRule{}, sp.Allow...)
			allow[i] = StorageRule{URI: rule.URI, Access: merged}
			sp.Allow = allow
			return sp
		}
	}
	sp.Allow = append(append([]StorageRule{}, sp.Allow...), rule)
	return sp
}

func removeStorageRule(rules []StorageRule, uri string) []StorageRule {
	out := rules[:0:0]
	for _, r := range rules {
		if r.URI != uri {
			out = append(out, r)
		}
	}
	return out
}

func mergeEnvironmentRule(ep *EnvironmentPermissions, rule EnvironmentRule) *EnvironmentPermissions {
	if ep == nil {
		ep = &EnvironmentPermissions{}
	} else {
		e := *ep
		ep = &e
	}
	for _, existing := range ep.Allow {
		if existing == rule {
			return ep
		}
	}
	ep.Allow = append(append([]EnvironmentRule{}, ep.Allow...), rule)
	return ep
}

func removeEnvironmentRule(rules []EnvironmentRule, key string) []EnvironmentRule {
	out := rules[:0:0]
	for _, r := range rules {
		if r.Key != key {
			out = append(out, r)
		}
	}
	return out
}

func containsAccess(list []AccessType, a AccessType) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

func detailsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
