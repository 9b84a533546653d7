package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a create violates a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrVersionMismatch is returned when a conditional write loses a
	// compare-and-swap race; callers re-read and retry.
	ErrVersionMismatch = errors.New("persistence: version mismatch")
	// ErrConstraintViolation is returned when a write fails an integrity check.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
