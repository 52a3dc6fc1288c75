package pr

import "errors"

var (
	// ErrUnknownProvider means the remote URL points at a host this
	// package has no provider for.
	ErrUnknownProvider = errors.New("unknown git provider")

	// ErrExists means the branch already has an open pull request.
	ErrExists = errors.New("pull request already exists for this branch")

	// ErrNoChanges means the head branch has no commits beyond base.
	ErrNoChanges = errors.New("no changes between branches")

	// ErrNotFound means no pull request exists with the given number.
	ErrNotFound = errors.New("pull request not found")

	// ErrClosed means the pull request cannot be merged because it is
	// closed.
	ErrClosed = errors.New("pull request is closed")

	// ErrMergeConflict means the merge was rejected by the host.
	ErrMergeConflict = errors.New("merge conflict")
)
