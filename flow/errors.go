package flow

import (
	"errors"
	"fmt"
	"strings"
)

// Engine errors.
var (
	// ErrStoreRequired indicates an operation needs a checkpoint store.
	ErrStoreRequired = errors.New("checkpoint store required")

	// ErrNoCheckpoint indicates no checkpoint exists for the run.
	ErrNoCheckpoint = errors.New("no checkpoint for run")

	// ErrRunCancelled indicates the run was cancelled before completion.
	ErrRunCancelled = errors.New("run cancelled")
)

// ValidationError reports problems detected in a graph definition before
// execution. A workflow with a validation error never starts.
type ValidationError struct {
	Graph  string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph %q invalid: %s", e.Graph, strings.Join(e.Issues, "; "))
}

// IsValidation reports whether err is a graph validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NodeError wraps a failure attributed to a specific node, for
// programmer-facing reporting. Node-level step failures are captured as
// Outcomes and never thrown across the graph boundary; NodeError is for
// engine-level problems such as write-set violations.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError is produced when a step panics. The panic is recovered and
// folded into a FatalFailure outcome so one misbehaving executor cannot
// take down the engine.
type PanicError struct {
	NodeID string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}
