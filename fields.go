package orion

// State field keys shared by the built-in steps. Each key is owned by
// exactly one node in a graph (write-sets are disjoint), but any step may
// read any key.
const (
	// Seeded by the Runner before the first node executes.
	FieldRunID = "run_id"
	FieldGraph = "graph"

	// Run inputs.
	FieldTask       = "task"
	FieldRemote     = "remote"
	FieldBaseBranch = "base_branch"

	// Written by the clone step.
	FieldWorkDir = "workdir"
	FieldBranch  = "branch"
	FieldCloned  = "cloned"

	// Written by the env step.
	FieldEnvReady = "env_ready"
	FieldEnvKind  = "env_kind"

	// Written by the generate step.
	FieldGenerated = "generated"
	FieldTokensIn  = "tokens_in"
	FieldTokensOut = "tokens_out"
	FieldCostUSD   = "cost_usd"
	FieldSessionID = "session_id"

	// Written by the test and lint steps.
	FieldTestsPassed = "tests_passed"
	FieldTestsRun    = "tests_run"
	FieldTestsFailed = "tests_failed"
	FieldLintPassed  = "lint_passed"
	FieldLintIssues  = "lint_issues"

	// Written by the commit and push steps.
	FieldCommitted = "committed"
	FieldCommitSHA = "commit_sha"
	FieldPushed    = "pushed"

	// Written by the PR step.
	FieldPRNumber = "pr_number"
	FieldPRURL    = "pr_url"

	// Written by the notify step.
	FieldNotified = "notified"
)

// TaskState builds the initial state for a task-to-PR run.
func TaskState(task, remote string) map[string]any {
	return map[string]any{
		FieldTask:   task,
		FieldRemote: remote,
	}
}
