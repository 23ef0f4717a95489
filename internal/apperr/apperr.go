// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import "errors"

var (
	// ErrValidation marks user-correctable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing diary/user/medal/solution.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrExternal marks AI/storage/push failures. Components swallow it at
	// their boundary; it never fails a primary user-facing operation.
	ErrExternal = errors.New("external service failed")
)
