package wasmtype

import "errors"

// Fail modes from spec §4.1. The projector never touches the filesystem or
// network; every error here is a pure value-level mismatch.
var (
	ErrCannotInterpretNumber = errors.New("cannot interpret number")
	ErrInvalidChar           = errors.New("invalid char")
	ErrUnknownObjectShape    = errors.New("unknown object shape")
	ErrResourceUninterpreted = errors.New("resource cannot be interpreted")
)
