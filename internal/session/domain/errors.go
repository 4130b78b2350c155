package domain

import "errors"

var (
	ErrAuthentication = errors.New("invalid email or password")
	ErrConflict       = errors.New("email already registered")
	ErrNotFound       = errors.New("user record not found")
	ErrNoSession      = errors.New("no active session")
	ErrUpload         = errors.New("avatar upload failed")
	// ErrReconcile wraps background reconciliation failures. Non-fatal:
	// the stale local role stays in effect.
	ErrReconcile = errors.New("role reconciliation failed")
)
