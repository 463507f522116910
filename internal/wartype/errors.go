// Package wartype holds the types and sentinel errors shared by the archive,
// vfs and loader packages.
package wartype

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for warexec operations.
var (
	// ErrConfiguration is returned when the archive manifest lacks a usable
	// War-Main-Class attribute.
	ErrConfiguration = errors.New("warexec: configuration error")

	// ErrArchiveFormat is returned when the archive cannot be opened or parsed.
	ErrArchiveFormat = errors.New("warexec: invalid archive")

	// ErrNotFound is returned when a name or path has no match.
	// It matches fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("warexec: not found: %w", fs.ErrNotExist)

	// ErrClosed is returned for operations attempted after Close.
	// It matches fs.ErrClosed.
	ErrClosed = fmt.Errorf("warexec: closed: %w", fs.ErrClosed)

	// ErrFatal is returned when no archive can be selected for execution.
	ErrFatal = errors.New("warexec: fatal")

	// ErrUnlinked is returned when a code unit exists but nothing can define it.
	ErrUnlinked = errors.New("warexec: no definition for code unit")

	// ErrInvalidLocation is returned when an address is not a well-formed
	// war location.
	ErrInvalidLocation = errors.New("warexec: invalid location")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("warexec: size overflow")
)
