package archive

import "github.com/meigma/warexec/internal/wartype"

// Sentinel errors re-exported from internal/wartype.
var (
	// ErrConfiguration is returned when the manifest lacks War-Main-Class.
	ErrConfiguration = wartype.ErrConfiguration

	// ErrArchiveFormat is returned when the archive cannot be opened or parsed.
	ErrArchiveFormat = wartype.ErrArchiveFormat

	// ErrNotFound is returned when a path is not in the entry table.
	ErrNotFound = wartype.ErrNotFound

	// ErrClosed is returned when the index is used after Close.
	ErrClosed = wartype.ErrClosed

	// ErrInvalidLocation is returned when an address cannot be parsed.
	ErrInvalidLocation = wartype.ErrInvalidLocation

	// ErrSizeOverflow is returned when a size exceeds supported limits.
	ErrSizeOverflow = wartype.ErrSizeOverflow
)
