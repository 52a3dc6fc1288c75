package orion

import "errors"

// Runner errors
var (
	// ErrRunNotFound indicates the runner has no record of the run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunActive indicates the run is still executing.
	ErrRunActive = errors.New("run still active")

	// ErrNoTask indicates a run was started without a task description.
	ErrNoTask = errors.New("no task in state")

	// ErrNoWorkDir indicates a step needed a working copy before the
	// clone step produced one.
	ErrNoWorkDir = errors.New("no working directory in state")
)

// Step wiring errors
var (
	// ErrNoGenerator indicates no code generator was injected into the
	// run context.
	ErrNoGenerator = errors.New("no generator in context")

	// ErrNoPRProvider indicates no pull request provider was injected
	// into the run context.
	ErrNoPRProvider = errors.New("no PR provider in context")
)

// Graph file errors
var (
	// ErrUnknownPredicate indicates a graph file edge names a predicate
	// that is neither built in nor supplied by the caller.
	ErrUnknownPredicate = errors.New("unknown predicate")
)
