package loader

import "github.com/meigma/warexec/internal/wartype"

// Sentinel errors re-exported from internal/wartype.
var (
	// ErrNotFound is returned when no tier resolves a name.
	ErrNotFound = wartype.ErrNotFound

	// ErrClosed is returned when the loader is used after Close.
	ErrClosed = wartype.ErrClosed

	// ErrUnlinked is returned when a code unit is found but the Definer has
	// nothing registered for it.
	ErrUnlinked = wartype.ErrUnlinked

	// ErrConfiguration is returned by Execute when no main class is known.
	ErrConfiguration = wartype.ErrConfiguration

	// ErrSizeOverflow is returned when a code unit exceeds the size limit.
	ErrSizeOverflow = wartype.ErrSizeOverflow
)
