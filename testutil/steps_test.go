package testutil

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/randalmurphal/orion/flow"
)

func TestStaticStep(t *testing.T) {
	step := StaticStep(flow.Patch{"done": true})
	out := step(context.Background(), flow.ViewOf(flow.State{}))
	if !out.OK() {
		t.Fatalf("outcome = %v, want success", out)
	}
	if out.Patch["done"] != true {
		t.Errorf("patch = %v", out.Patch)
	}
}

func TestFailingStep(t *testing.T) {
	step := FailingStep("boom")
	out := step(context.Background(), flow.ViewOf(flow.State{}))
	if out.Class != flow.FatalFailure {
		t.Errorf("class = %v, want fatal", out.Class)
	}
}

func TestFlakyStep(t *testing.T) {
	step := FlakyStep(2, flow.Patch{"done": true})
	view := flow.ViewOf(flow.State{})

	for i := 0; i < 2; i++ {
		if out := step(context.Background(), view); out.Class != flow.TransientFailure {
			t.Fatalf("attempt %d class = %v, want transient", i+1, out.Class)
		}
	}
	if out := step(context.Background(), view); !out.OK() {
		t.Errorf("third attempt = %v, want success", out)
	}
}

func TestBlockingStep(t *testing.T) {
	started := make(chan struct{})
	step := BlockingStep(started)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan flow.Outcome, 1)
	go func() { done <- step(ctx, flow.ViewOf(flow.State{})) }()

	<-started
	cancel()
	if out := <-done; out.Class != flow.TransientFailure {
		t.Errorf("class after cancel = %v, want transient", out.Class)
	}
}

func TestCountingStep(t *testing.T) {
	var calls atomic.Int32
	step := CountingStep(&calls, StaticStep(nil))

	step(context.Background(), flow.ViewOf(flow.State{}))
	step(context.Background(), flow.ViewOf(flow.State{}))
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
