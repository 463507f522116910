package vfs

import "github.com/meigma/warexec/internal/wartype"

// Sentinel errors re-exported from internal/wartype.
var (
	// ErrNotFound is returned when a location or name has no match.
	ErrNotFound = wartype.ErrNotFound

	// ErrClosed is returned when the underlying archive has been closed.
	ErrClosed = wartype.ErrClosed

	// ErrInvalidLocation is returned for malformed or unroutable addresses.
	ErrInvalidLocation = wartype.ErrInvalidLocation

	// ErrSizeOverflow is returned when a dependency archive exceeds the size limit.
	ErrSizeOverflow = wartype.ErrSizeOverflow
)
