package flow

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("boom")

func TestRetryPolicy_BackoffNonDecreasing(t *testing.T) {
	p := &RetryPolicy{
		MaxAttempts: 6,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		JitterFrac:  0.5,
	}

	prevMax := time.Duration(0)
	for attempt := 2; attempt <= 6; attempt++ {
		// Jitter is random; the minimum possible delay for this attempt
		// must not undercut the maximum possible delay of the previous
		// one, so observed delays are always non-decreasing.
		minDelay := p.backoffBase(attempt)
		if minDelay < prevMax {
			t.Errorf("attempt %d: min delay %v < previous max %v", attempt, minDelay, prevMax)
		}
		prevMax = minDelay + time.Duration(p.JitterFrac*float64(minDelay))
		if p.MaxDelay > 0 && prevMax > p.MaxDelay {
			prevMax = p.MaxDelay
		}

		for i := 0; i < 50; i++ {
			d := p.backoff(attempt)
			if d < minDelay || d > p.MaxDelay {
				t.Fatalf("attempt %d: backoff %v outside [%v, %v]", attempt, d, minDelay, p.MaxDelay)
			}
		}
	}
}

func TestRetryPolicy_BackoffCapped(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 4 * time.Second}
	if d := p.backoff(9); d != 4*time.Second {
		t.Errorf("backoff(9) = %v, want capped at %v", d, 4*time.Second)
	}
}

func TestRetryPolicy_NoBaseDelay(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3}
	if d := p.backoff(2); d != 0 {
		t.Errorf("backoff(2) = %v, want 0", d)
	}
}

func TestRetryPolicy_Retryable(t *testing.T) {
	tests := []struct {
		name   string
		policy RetryPolicy
		out    Outcome
		want   bool
	}{
		{"transient retries", RetryPolicy{MaxAttempts: 3}, Transient(errTest), true},
		{"fatal never retries", RetryPolicy{MaxAttempts: 3}, Fatal(errTest), false},
		{"success never retries", RetryPolicy{MaxAttempts: 3}, Succeed(nil), false},
		{"resource retries by default", RetryPolicy{MaxAttempts: 3}, Unavailable(errTest), true},
		{"resource fatal per policy", RetryPolicy{MaxAttempts: 3, FatalOnResource: true}, Unavailable(errTest), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.retryable(tt.out); got != tt.want {
				t.Errorf("retryable(%s) = %v, want %v", tt.out.Class, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_Check(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		wantErr bool
	}{
		{"valid", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, JitterFrac: 0.2}, false},
		{"zero attempts", RetryPolicy{MaxAttempts: 0}, true},
		{"negative delay", RetryPolicy{MaxAttempts: 1, BaseDelay: -1}, true},
		{"jitter above 1", RetryPolicy{MaxAttempts: 1, JitterFrac: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.check()
			if (err != nil) != tt.wantErr {
				t.Errorf("check() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
