// Package httpfilter implements the HTTP Host Filter: a deny-by-default
// decorator in front of the engine's outbound-HTTP facility.
package httpfilter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// ErrHTTPRequestURIInvalid and ErrHTTPRequestDenied are the guest-visible
// error codes from spec §4.7, mirroring the engine's standard
// wasi-http ErrorCode variants.
var (
	ErrHTTPRequestURIInvalid = errors.New("HttpRequestUriInvalid")
	ErrHTTPRequestDenied     = errors.New("HttpRequestDenied")
)

// allowedHost is the parsed form of an AllowedHost record (spec §4.7):
// scheme is empty for a scheme-agnostic entry.
type allowedHost struct {
	scheme string
	host   string
}

func (a allowedHost) matches(reqHost, reqScheme string) bool {
	if a.host != reqHost {
		return false
	}
	if a.scheme == "" {
		return true
	}
	return a.scheme == reqScheme
}

// Filter inspects every outgoing request's host against a fixed allow-set,
// constructed once and never consulted beyond the URI in front of it
// (spec §4.7, "Failure mode: deny-by-default").
type Filter struct {
	allowed []allowedHost
}

// New parses each allow-set string (a bare host or a full URL) into an
// allowedHost record. Construction fails if any entry cannot be parsed,
// matching spec §4.7: "invalid entries error out at construction time."
func New(hosts []string) (*Filter, error) {
	f := &Filter{}
	for _, raw := range hosts {
		h, err := parseAllowedHost(raw)
		if err != nil {
			return nil, fmt.Errorf("parse allowed host %q: %w", raw, err)
		}
		f.allowed = append(f.allowed, h)
	}
	return f, nil
}

func parseAllowedHost(raw string) (allowedHost, error) {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return allowedHost{scheme: strings.ToLower(u.Scheme), host: strings.ToLower(u.Hostname())}, nil
	}
	u, err := url.Parse("http://" + raw)
	if err != nil || u.Hostname() == "" {
		return allowedHost{}, fmt.Errorf("invalid host format: %s", raw)
	}
	return allowedHost{host: strings.ToLower(u.Hostname())}, nil
}

// IsAllowed reports whether uri's host matches some allow-set entry, per
// spec §4.7 and the §8 "Case-insensitive host matching" / "Scheme
// specificity" properties.
func (f *Filter) IsAllowed(rawURI string) bool {
	u, err := url.Parse(rawURI)
	if err != nil || u.Hostname() == "" {
		return false
	}
	reqHost := strings.ToLower(u.Hostname())
	reqScheme := strings.ToLower(u.Scheme)
	for _, a := range f.allowed {
		if a.matches(reqHost, reqScheme) {
			return true
		}
	}
	return false
}

// Check enforces the request lifecycle from spec §4.7: a missing host is
// ErrHTTPRequestURIInvalid; a host outside the allow-set is
// ErrHTTPRequestDenied (both logged at warn); otherwise nil means the
// request may proceed to the underlying facility unmodified.
func (f *Filter) Check(rawURI string) error {
	u, err := url.Parse(rawURI)
	if err != nil || u.Hostname() == "" {
		slog.Warn("http request missing host, blocking request", "uri", rawURI)
		return ErrHTTPRequestURIInvalid
	}
	if !f.IsAllowed(rawURI) {
		slog.Warn("http request blocked by network policy", "uri", rawURI, "allowed_hosts", f.allowed)
		return ErrHTTPRequestDenied
	}
	return nil
}
