package orion

import (
	"context"
	"fmt"

	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/pr"
)

// PRStep opens a pull request for the pushed run branch using the
// provider injected into the context (GitHub, GitLab, or a mock).
//
// Reads: task, branch, pushed, run_id, tests_passed, tests_run,
// lint_passed.
// Writes: pr_number, pr_url.
func PRStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		if !view.GetBool(FieldPushed) {
			return flow.Succeedf(flow.Patch{}, "branch not pushed, skipping PR")
		}
		provider := pr.ProviderFromContext(ctx)
		if provider == nil {
			return flow.Fatal(ErrNoPRProvider)
		}

		b := pr.NewBuilder(commitSubject(view.GetString(FieldTask))).
			WithSummary(view.GetString(FieldTask), nil, testPlan(view)).
			WithBase(cfg.baseBranch()).
			WithHead(view.GetString(FieldBranch)).
			WithLabels("orion").
			WithMetadata("run_id", view.GetString(FieldRunID))
		if cfg.DraftPR {
			b = b.AsDraft()
		}

		created, err := provider.CreatePR(ctx, b.Build())
		if err != nil {
			return flow.Unavailable(fmt.Errorf("create PR: %w", err))
		}

		return flow.Succeedf(flow.Patch{
			FieldPRNumber: created.ID,
			FieldPRURL:    created.URL,
		}, "opened PR #%d", created.ID)
	}
}

// testPlan summarizes the verification that ran during the workflow for
// the PR body.
func testPlan(view flow.View) string {
	if !view.Has(FieldTestsPassed) {
		return "Automated testing was disabled for this run."
	}
	plan := fmt.Sprintf("Ran the project test suite: %d tests", view.GetInt(FieldTestsRun))
	if view.GetBool(FieldTestsPassed) {
		plan += ", all passed."
	} else {
		plan += fmt.Sprintf(", %d failed (non-strict run).", view.GetInt(FieldTestsFailed))
	}
	if view.Has(FieldLintPassed) {
		if view.GetBool(FieldLintPassed) {
			plan += " Lint clean."
		} else {
			plan += fmt.Sprintf(" Lint reported %d issues.", view.GetInt(FieldLintIssues))
		}
	}
	return plan
}
