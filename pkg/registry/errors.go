package registry

import "errors"

// Usage errors returned directly to callers, per the core API surface's
// error taxonomy.
var (
	// ErrNotInitialized is returned by every operation except Init and Close
	// when called before a successful Init.
	ErrNotInitialized = errors.New("registry: not initialized")

	// ErrArchiveNotFound is returned when an archive_path does not match a
	// registered archive.
	ErrArchiveNotFound = errors.New("registry: archive not found")

	// ErrEntryNotFound is returned when inner_path does not resolve to an
	// entry within the named archive.
	ErrEntryNotFound = errors.New("registry: entry not found")

	// ErrEntryNotFile is returned when a read operation is given a path
	// that resolves to a directory.
	ErrEntryNotFile = errors.New("registry: entry is not a file")

	// ErrInvalidPath is returned when ListDirectory is given an inner_path
	// that resolves to a file, and when Search is given a pattern that does
	// not compile. Paths are not otherwise validated: an unknown path yields
	// ErrArchiveNotFound or ErrEntryNotFound.
	ErrInvalidPath = errors.New("registry: invalid path")
)
