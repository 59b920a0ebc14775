// Package repository defines error types that are reused across the
// credential store. These sentinel values allow higher layers such as
// the session service to distinguish between failure scenarios without
// inspecting driver-specific error strings.
package repository

import "errors"

// ErrDuplicate is returned when an insert or update violates the unique
// constraints on username or email. The session layer translates this
// into an HTTP 409 response.
var ErrDuplicate = errors.New("username or email already exists")

// ErrNotFound is returned when a lookup matches no row. The session layer
// distinguishes it from infrastructure failures: a missing principal is a
// 404 (or 401 inside token flows), while a broken or timed-out store is a
// 500.
var ErrNotFound = errors.New("user not found")
