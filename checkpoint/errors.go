package checkpoint

import "errors"

var (
	// ErrSequenceConflict indicates a save at or below an existing
	// sequence number for the run. Checkpoints are append-only.
	ErrSequenceConflict = errors.New("checkpoint sequence conflict")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
