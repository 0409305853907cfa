package policy

import "errors"

// ErrUnsupportedVersion is returned by Validate when Document.Version is not
// SupportedVersion.
var ErrUnsupportedVersion = errors.New("unsupported policy version")

// ErrInvalidPermissions wraps every permission-grammar violation (spec §3
// invariants 1-4); the wrapped message carries the offending value.
var ErrInvalidPermissions = errors.New("invalid permissions")

// ErrPolicyNotFound is returned when a component has no co-located policy.
var ErrPolicyNotFound = errors.New("policy not found")
