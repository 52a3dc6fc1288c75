package flow

import (
	"fmt"
	"time"
)

// Class classifies the result of one step invocation attempt.
type Class string

const (
	// Success indicates the step completed and its patch should be merged.
	Success Class = "success"

	// TransientFailure indicates a recoverable failure; the retry
	// controller may re-invoke the step per the node's policy.
	TransientFailure Class = "transient"

	// FatalFailure indicates an unrecoverable failure for this node; it
	// propagates to routing immediately, with no retry.
	FatalFailure Class = "fatal"

	// ResourceFailure indicates an external collaborator was unavailable.
	// Treated as TransientFailure unless the node's retry policy marks
	// resource failures fatal.
	ResourceFailure Class = "resource"
)

// Outcome is the result of one step invocation: a classification, an
// optional state patch, and diagnostic metadata. Outcomes are created per
// attempt and folded into a checkpoint once the node is final.
type Outcome struct {
	Class    Class         `json:"class"`
	Patch    Patch         `json:"patch,omitempty"`
	Message  string        `json:"message,omitempty"`
	Cause    string        `json:"cause,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`

	// Err carries the underlying error for in-process callers. It is not
	// persisted; Cause holds the serializable form.
	Err error `json:"-"`
}

// Succeed builds a Success outcome carrying a state patch.
func Succeed(patch Patch) Outcome {
	return Outcome{Class: Success, Patch: patch}
}

// Succeedf builds a Success outcome with a patch and a diagnostic message.
func Succeedf(patch Patch, format string, args ...any) Outcome {
	return Outcome{Class: Success, Patch: patch, Message: fmt.Sprintf(format, args...)}
}

// Transient builds a TransientFailure outcome from an error.
func Transient(err error) Outcome {
	return Outcome{Class: TransientFailure, Err: err, Cause: errString(err)}
}

// Fatal builds a FatalFailure outcome from an error.
func Fatal(err error) Outcome {
	return Outcome{Class: FatalFailure, Err: err, Cause: errString(err)}
}

// Unavailable builds a ResourceFailure outcome from an error.
func Unavailable(err error) Outcome {
	return Outcome{Class: ResourceFailure, Err: err, Cause: errString(err)}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Class == Success
}

// Retryable reports whether the outcome may be retried under a policy that
// does not mark resource failures fatal.
func (o Outcome) Retryable() bool {
	return o.Class == TransientFailure || o.Class == ResourceFailure
}

func (o Outcome) String() string {
	if o.Message != "" {
		return fmt.Sprintf("%s: %s", o.Class, o.Message)
	}
	if o.Cause != "" {
		return fmt.Sprintf("%s: %s", o.Class, o.Cause)
	}
	return string(o.Class)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
