// Package vfs resolves war locations to byte streams without extracting
// anything to disk.
//
// A [Resolver] opens entries of the outer archive and members of the
// dependency archives nested in it. Stored (uncompressed) dependency archives
// are read in place through a section of the outer archive; compressed ones
// are inflated into memory for the duration of a single call. Only the member
// listing of each dependency archive is retained between calls.
//
// A [Mux] routes addresses to stream openers by scheme, so callers can open
// "war://..." addresses without knowing anything about archives. [Sources]
// turns the archive roots into the ordered lookup chain a loader consults.
//
// A Resolver is meant to be used from one goroutine at a time; callers that
// run loaded code concurrently must serialize access to it.
package vfs
