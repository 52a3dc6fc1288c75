package orion

import (
	"context"
	"fmt"

	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/notify"
)

// NotifyStep announces the opened pull request through the notifier in
// the context. Run-level start/finish events are the Runner's job; this
// node only fires the PR announcement, and is a no-op success when no
// notifier is configured or no PR was opened.
//
// Reads: run_id, graph, pr_url.
// Writes: notified.
func NotifyStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		notifier := notify.NotifierFromContext(ctx)
		if notifier == nil {
			return flow.Succeedf(flow.Patch{FieldNotified: false}, "no notifier configured")
		}
		url := view.GetString(FieldPRURL)
		if url == "" {
			return flow.Succeedf(flow.Patch{FieldNotified: false}, "no PR to announce")
		}

		event := notify.PRCreated(view.GetString(FieldRunID), view.GetString(FieldGraph), url)
		if err := notifier.Notify(ctx, event); err != nil {
			return flow.Transient(fmt.Errorf("notify: %w", err))
		}
		return flow.Succeed(flow.Patch{FieldNotified: true})
	}
}
