// Package repository defines error types that are reused across every
// storage driver. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// knowing whether MongoDB, MySQL or the in-memory store is underneath.
package repository

import "errors"

// ErrNotFound is returned when the addressed document does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a unique constraint,
// such as registering an email that is already taken.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a conditional write loses, for example a
// refresh-token swap whose expected value was already replaced by a
// concurrent rotation or cleared by logout.
var ErrConflict = errors.New("conflict")
