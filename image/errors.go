package image

import "errors"

var (
	// ErrNotFound reports a missing path component inside the image.
	ErrNotFound = errors.New("not found")

	// ErrExists reports a create against a name already present.
	ErrExists = errors.New("entry exists")

	// ErrNotDirectory reports a path component that resolved to a
	// file where a directory was required.
	ErrNotDirectory = errors.New("not a directory")

	// ErrDestinationNotEmpty reports a tree copy into a destination
	// that already holds entries; tree copies never merge silently.
	ErrDestinationNotEmpty = errors.New("destination not empty")

	// ErrDestinationTypeMismatch reports a tree extraction onto an
	// existing host path that is not a directory.
	ErrDestinationTypeMismatch = errors.New("destination is not a directory")
)
