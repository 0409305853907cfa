package policy

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

var fixtures = []string{
	"minimal", "storage-only", "network-only", "environment-only",
	"comprehensive", "docker", "docker-privileged", "restricted",
	"development", "web-service",
}

// TestPolicyRoundTrip implements spec §8 scenario 6: parse_file(yaml);
// to_yaml(doc); parse_str(yaml2) yields a document structurally equal to
// the first, for every fixture in the distributed testdata set.
func TestPolicyRoundTrip(t *testing.T) {
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("testdata", name+".yaml")
			doc, err := ParseFile(path)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			b, err := ToYAML(doc)
			if err != nil {
				t.Fatalf("ToYAML: %v", err)
			}
			doc2, err := ParseBytes(b)
			if err != nil {
				t.Fatalf("ParseBytes(round-trip): %v", err)
			}
			if !reflect.DeepEqual(doc, doc2) {
				t.Fatalf("round-trip mismatch:\nfirst:  %#v\nsecond: %#v", doc, doc2)
			}
		})
	}
}

func TestValidateRejectsUnsupportedVersion(t *testing.T) {
	doc := Document{Version: "2.0"}
	if err := doc.Validate(); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestStorageURIWildcardValidation(t *testing.T) {
	valid := []string{
		"fs://work/agent/**",
		"fs://work/*/data",
		"fs://work/agent/*",
		"fs://work/agent/*/subdir/**",
	}
	for _, uri := range valid {
		if err := validateStorageRule(StorageRule{URI: uri, Access: []AccessType{AccessRead}}); err != nil {
			t.Errorf("expected %q to be valid, got %v", uri, err)
		}
	}

	invalid := []string{
		"",
		"fs://work/agent/***",
		"fs://work/agent/**file",
		"fs://work/agent/file**.txt",
		"fs://work/agent/**/**.txt",
	}
	for _, uri := range invalid {
		if err := validateStorageRule(StorageRule{URI: uri, Access: []AccessType{AccessRead}}); err == nil {
			t.Errorf("expected %q to be invalid", uri)
		}
	}
}

func TestNetworkHostWildcardValidation(t *testing.T) {
	valid := []string{"example.com", "*.example.com", "sub.example.com", "*"}
	for _, h := range valid {
		if err := validateNetworkHost(h); err != nil {
			t.Errorf("expected %q to be valid, got %v", h, err)
		}
	}

	invalid := []string{"", "*.*.example.com", "example*.com", "exam*ple.com", "**example.com", "*.", "*.example."}
	for _, h := range invalid {
		if err := validateNetworkHost(h); err == nil {
			t.Errorf("expected %q to be invalid", h)
		}
	}
}

func TestEnvironmentKeyValidation(t *testing.T) {
	valid := []string{"PATH", "MY_VAR", "HOME"}
	for _, k := range valid {
		if err := validateEnvironmentKey(k); err != nil {
			t.Errorf("expected %q to be valid, got %v", k, err)
		}
	}

	invalid := []string{"", "PATH_*", "*_DEBUG", "*", "PA*TH"}
	for _, k := range invalid {
		if err := validateEnvironmentKey(k); err == nil {
			t.Errorf("expected %q to be invalid", k)
		}
	}
}

// TestAccessMergeSemantics implements spec §8's "Access-merge semantics":
// granting storage {uri=u, access=[read]} then {uri=u, access=[write]}
// yields exactly one storage rule for u with access {read, write}.
func TestAccessMergeSemantics(t *testing.T) {
	doc := Empty()
	doc, err := Grant(doc, KindStorage, map[string]any{"uri": "fs://work", "access": []string{"read"}})
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	doc, err = Grant(doc, KindStorage, map[string]any{"uri": "fs://work", "access": []string{"write"}})
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}

	if len(doc.Permissions.Storage.Allow) != 1 {
		t.Fatalf("expected exactly one storage rule, got %d", len(doc.Permissions.Storage.Allow))
	}
	access := doc.Permissions.Storage.Allow[0].Access
	if len(access) != 2 || !containsAccess(access, AccessRead) || !containsAccess(access, AccessWrite) {
		t.Fatalf("expected {read,write}, got %v", access)
	}
}

// TestDuplicateSuppression implements spec §8's "Duplicate suppression":
// granting the same network/environment rule N>=1 times yields exactly one
// entry.
func TestDuplicateSuppression(t *testing.T) {
	doc := Empty()
	var err error
	for i := 0; i < 3; i++ {
		doc, err = Grant(doc, KindNetwork, map[string]any{"host": "example.com"})
		if err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
	}
	if len(doc.Permissions.Network.Allow) != 1 {
		t.Fatalf("expected exactly one network rule, got %d", len(doc.Permissions.Network.Allow))
	}

	doc = Empty()
	for i := 0; i < 3; i++ {
		doc, err = Grant(doc, KindEnvironment, map[string]any{"key": "PATH"})
		if err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
	}
	if len(doc.Permissions.Environment.Allow) != 1 {
		t.Fatalf("expected exactly one environment rule, got %d", len(doc.Permissions.Environment.Allow))
	}
}

func TestRevokeIsNoOpWhenAbsent(t *testing.T) {
	doc := Empty()
	out := Revoke(doc, KindNetwork, map[string]any{"host": "example.com"})
	if !reflect.DeepEqual(doc, out) {
		t.Fatalf("expected revoke of absent rule to be a no-op")
	}
}

func TestRevokeRemovesGrantedRule(t *testing.T) {
	doc, err := Grant(Empty(), KindNetwork, map[string]any{"host": "example.com"})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	doc = Revoke(doc, KindNetwork, map[string]any{"host": "example.com"})
	if len(doc.Permissions.Network.Allow) != 0 {
		t.Fatalf("expected network allow list empty after revoke, got %v", doc.Permissions.Network.Allow)
	}
}

func TestCustomKindRecordedNotEnforced(t *testing.T) {
	doc, err := Grant(Empty(), "ipc", map[string]any{"uri": "ipc://bus"})
	if err != nil {
		t.Fatalf("grant custom kind: %v", err)
	}
	if len(doc.Custom) != 1 || doc.Custom[0].Kind != "ipc" {
		t.Fatalf("expected custom rule recorded, got %#v", doc.Custom)
	}
}

func TestResetProducesEmptyDocument(t *testing.T) {
	if got := Reset(); !reflect.DeepEqual(got, Empty()) {
		t.Fatalf("expected Reset() == Empty(), got %#v", got)
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(os.TempDir(), "no-such-policy.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
