package flow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds re-invocation of a failing step: a maximum attempt
// count and exponential backoff with jitter. Classification comes from the
// step itself; the controller only counts and schedules.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations allowed, including
	// the first. Must be at least 1.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; each further
	// attempt doubles it, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff. Zero means no cap.
	MaxDelay time.Duration

	// JitterFrac adds up to this fraction of the computed delay as random
	// jitter. Clamped to [0, 1] so delays stay non-decreasing across
	// attempts.
	JitterFrac float64

	// FatalOnResource treats ResourceFailure outcomes as fatal instead of
	// retrying them.
	FatalOnResource bool

	// FatalOnTimeout treats a node timeout as fatal instead of transient.
	FatalOnTimeout bool
}

// DefaultRetry is a sensible policy for steps that call flaky externals.
func DefaultRetry() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		JitterFrac:  0.2,
	}
}

// NoRetry is a single-attempt policy.
func NoRetry() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

func (p *RetryPolicy) check() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry policy: negative delay")
	}
	if p.JitterFrac < 0 || p.JitterFrac > 1 {
		return fmt.Errorf("retry policy: jitter fraction %v outside [0, 1]", p.JitterFrac)
	}
	return nil
}

// backoffBase computes the deterministic delay before the given attempt
// (attempt 2 is the first retry): BaseDelay doubled per retry, capped at
// MaxDelay.
func (p *RetryPolicy) backoffBase(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// backoff adds bounded jitter to the base delay. Doubling dominates the
// jitter bound (JitterFrac <= 1), so delays are non-decreasing across
// attempts.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.backoffBase(attempt)
	if delay == 0 {
		return 0
	}
	if p.JitterFrac > 0 {
		delay += time.Duration(rand.Float64() * p.JitterFrac * float64(delay))
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// retryable reports whether the outcome should be re-attempted under this
// policy, ignoring the attempt budget.
func (p *RetryPolicy) retryable(out Outcome) bool {
	switch out.Class {
	case TransientFailure:
		return true
	case ResourceFailure:
		return !p.FatalOnResource
	default:
		return false
	}
}

// sleep waits for d or until ctx is done. Returns false if cancelled.
// Backoff waits happen on the node's own goroutine without holding a
// worker slot, so one node's backoff never blocks the rest of the
// frontier.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
