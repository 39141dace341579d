package tournamentdb

import "errors"

// Sentinel errors for the storage layer. These are infrastructure
// conditions; services translate them into domain failures.
var (
	// ErrNotFound indicates the tournament document does not exist.
	ErrNotFound = errors.New("tournament not found")

	// ErrAlreadyExists indicates Create was called with a taken id.
	ErrAlreadyExists = errors.New("tournament already exists")

	// ErrStaleSnapshot indicates the document changed after it was read.
	ErrStaleSnapshot = errors.New("stale snapshot")
)
