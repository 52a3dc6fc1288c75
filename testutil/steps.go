// Package testutil provides fake flow steps for exercising graphs in
// tests without real executors.
package testutil

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/randalmurphal/orion/flow"
)

// StaticStep returns a step that always succeeds with the given patch.
func StaticStep(patch flow.Patch) flow.StepFunc {
	return func(_ context.Context, _ flow.View) flow.Outcome {
		return flow.Succeed(patch)
	}
}

// FailingStep returns a step that always fails fatally.
func FailingStep(msg string) flow.StepFunc {
	return func(_ context.Context, _ flow.View) flow.Outcome {
		return flow.Fatal(errors.New(msg))
	}
}

// FlakyStep returns a step that fails transiently n times, then succeeds
// with the given patch. Safe for concurrent attempts.
func FlakyStep(n int, patch flow.Patch) flow.StepFunc {
	var failures atomic.Int32
	return func(_ context.Context, _ flow.View) flow.Outcome {
		if int(failures.Add(1)) <= n {
			return flow.Transient(errors.New("flaky step failure"))
		}
		return flow.Succeed(patch)
	}
}

// BlockingStep returns a step that blocks until its context is canceled,
// closing started (if non-nil) once it is running.
func BlockingStep(started chan<- struct{}) flow.StepFunc {
	return func(ctx context.Context, _ flow.View) flow.Outcome {
		if started != nil {
			close(started)
		}
		<-ctx.Done()
		return flow.Transient(ctx.Err())
	}
}

// CountingStep wraps a step and counts invocations through calls.
func CountingStep(calls *atomic.Int32, step flow.StepFunc) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		calls.Add(1)
		return step(ctx, view)
	}
}
