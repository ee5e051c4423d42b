package librarian

import "errors"

// Sentinel errors returned by the librarian. The API layer maps them onto
// HTTP statuses and user-facing Vietnamese messages; provider error details
// never travel past this package.
var (
	// ErrInvalidQuery is returned when the query is empty or too long.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUpstream is returned when the model provider cannot be reached or
	// answers with a failure.
	ErrUpstream = errors.New("model provider unavailable")

	// ErrDisabled is returned when the librarian is turned off in config.
	ErrDisabled = errors.New("librarian is disabled")
)
