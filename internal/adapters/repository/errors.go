package repository

import "errors"

// Sentinel kinds returned by Store implementations. The facade classifies
// them into apperr kinds exactly once.
var (
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable is returned deliberately by adapters for
	// connection-class and initialization failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrReadOnly is returned by stores that cannot accept writes.
	ErrReadOnly = errors.New("store is read-only")

	// ErrInvalidReference is returned when a contest write names a sport
	// that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrDuplicate is returned when a write collides with a unique key,
	// in practice a username that is already taken.
	ErrDuplicate = errors.New("duplicate key")
)
