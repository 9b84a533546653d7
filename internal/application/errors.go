package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced entity or room is absent.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a create hits a uniqueness violation or a
	// conditional write loses its race beyond the retry budget.
	ErrConflict = errors.New("application: conflict")
	// ErrForbidden is returned when a transition is attempted by a party
	// without ownership of the resource.
	ErrForbidden = errors.New("application: forbidden")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
)

// OperationError attaches a caller-facing message to a sentinel
// classification so transports can map the class to a status code while
// surfacing the specific message.
type OperationError struct {
	Sentinel error
	Message  string
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the sentinel for errors.Is.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Sentinel
}

func notFound(format string, args ...any) error {
	return &OperationError{Sentinel: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &OperationError{Sentinel: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &OperationError{Sentinel: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, v.FieldErrors[field])
	}
	return strings.Join(messages, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ModuleError reports module codes rejected against the catalog or a
// lecturer's qualified set, alongside the allowed codes where known.
type ModuleError struct {
	Invalid []string
	Allowed []string
	Message string
}

// Error implements the error interface.
func (e *ModuleError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unknown modules: %s", strings.Join(e.Invalid, ", "))
}
