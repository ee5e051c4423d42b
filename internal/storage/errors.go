package storage

import "errors"

// Sentinel errors returned by Storage implementations. Handlers map these
// onto HTTP statuses, so backends must return them (wrapped is fine) rather
// than driver-specific errors.
var (
	// ErrNotFound is returned when a requested record does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("record not found")

	// ErrSlugExists is returned when a create or update would collide with
	// another record's slug.
	ErrSlugExists = errors.New("slug already exists")

	// ErrEmailExists is returned when an admin account with the same email
	// already exists.
	ErrEmailExists = errors.New("email already exists")
)
