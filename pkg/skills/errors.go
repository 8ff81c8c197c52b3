package skills

import "errors"

// Sentinel errors returned by the registry, loader, and parser. Callers
// match them with errors.Is; most are returned wrapped with path or skill
// context.
var (
	// ErrInvalidArgument indicates a nil or malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound indicates an unknown path, skill name, or tool name.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a registry name collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidationFailed indicates a manifest invariant violation.
	ErrValidationFailed = errors.New("validation failed")
	// ErrParseFailed indicates a dialect-specific syntax or structure error.
	ErrParseFailed = errors.New("parse failed")
	// ErrNotImplemented indicates an unsupported tool kind.
	ErrNotImplemented = errors.New("not implemented")
)
