package httpfilter

import (
	"errors"
	"testing"
)

func TestIsAllowedCaseInsensitiveHostMatching(t *testing.T) {
	f, err := New([]string{"Example.COM"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.IsAllowed("http://example.com/path") {
		t.Fatalf("expected lowercase match")
	}
	if !f.IsAllowed("http://EXAMPLE.com/path") {
		t.Fatalf("expected case-insensitive match")
	}
}

// TestSchemeSpecificity implements spec §8: if the allow-set contains only
// https://h, then is_allowed(http://h/...) = false and
// is_allowed(https://h/...) = true.
func TestSchemeSpecificity(t *testing.T) {
	f, err := New([]string{"https://example.com"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.IsAllowed("http://example.com/") {
		t.Fatalf("expected http denied when only https allowed")
	}
	if !f.IsAllowed("https://example.com/") {
		t.Fatalf("expected https allowed")
	}
}

func TestSchemeAgnosticHostAllowsAnyScheme(t *testing.T) {
	f, err := New([]string{"example.com"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.IsAllowed("http://example.com/") || !f.IsAllowed("https://example.com/") {
		t.Fatalf("expected scheme-agnostic host to allow both schemes")
	}
}

func TestCheckMissingHostIsURIInvalid(t *testing.T) {
	f, _ := New(nil)
	if err := f.Check("not a url"); !errors.Is(err, ErrHTTPRequestURIInvalid) {
		t.Fatalf("expected ErrHTTPRequestURIInvalid, got %v", err)
	}
}

func TestCheckDisallowedHostIsDenied(t *testing.T) {
	f, err := New([]string{"example.com"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Check("https://evil.com/"); !errors.Is(err, ErrHTTPRequestDenied) {
		t.Fatalf("expected ErrHTTPRequestDenied, got %v", err)
	}
	if err := f.Check("https://example.com/"); err != nil {
		t.Fatalf("expected allowed host to pass, got %v", err)
	}
}

func TestNewRejectsInvalidHostAtConstruction(t *testing.T) {
	if _, err := New([]string{""}); err == nil {
		t.Fatalf("expected construction error for empty host entry")
	}
}
