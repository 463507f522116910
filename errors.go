package warexec

import "github.com/meigma/warexec/internal/wartype"

// Sentinel errors re-exported from internal/wartype.
var (
	// ErrConfiguration is returned when required archive metadata is missing.
	ErrConfiguration = wartype.ErrConfiguration

	// ErrArchiveFormat is returned when an archive cannot be opened or parsed.
	ErrArchiveFormat = wartype.ErrArchiveFormat

	// ErrNotFound is returned when a name resolves in no tier.
	ErrNotFound = wartype.ErrNotFound

	// ErrClosed is returned for operations after Close.
	ErrClosed = wartype.ErrClosed

	// ErrFatal is returned when no archive can be located for the process.
	ErrFatal = wartype.ErrFatal

	// ErrUnlinked is returned when a unit exists in the archive but no
	// definition is registered for it.
	ErrUnlinked = wartype.ErrUnlinked

	// ErrSizeOverflow is returned when an entry exceeds a configured limit.
	ErrSizeOverflow = wartype.ErrSizeOverflow
)
