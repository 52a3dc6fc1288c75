package generate

import "errors"

// Generator errors
var (
	// ErrNotFound indicates the claude CLI binary was not found.
	ErrNotFound = errors.New("claude CLI not found")

	// ErrTimeout indicates the generation run timed out.
	ErrTimeout = errors.New("generation timed out")

	// ErrFailed indicates the claude CLI exited with an error.
	ErrFailed = errors.New("generation failed")

	// ErrContextTooLarge indicates the file context exceeds size limits.
	ErrContextTooLarge = errors.New("context exceeds size limit")
)
