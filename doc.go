// Package orion is a workflow orchestration engine for automated software
// change: a directed graph of steps driven to completion with retries,
// checkpoints, and resume, plus the step bindings that turn a task
// description into a pull request.
//
// The engine lives in the flow subpackage; this package binds it to the
// domain:
//
//   - flow: graph executor, condition router, retry controller, state
//   - checkpoint: memory, file, and SQLite checkpoint stores
//   - gitops: git CLI operations (clone, branch, commit, push, diff)
//   - generate: AI code generation via the claude CLI
//   - envmgr: project environment provisioning
//   - codetest: test and lint harness
//   - pr: pull request providers (GitHub, GitLab, mock)
//   - notify: run event notifications (log, Slack, Discord, webhook)
//   - runlog: per-run outcome journal with search
//   - artifact: run artifact storage and retention
//   - prompt: prompt template loading
//   - config: hierarchical configuration (.orion.yaml, ORION_* env)
//   - auth: webhook token verification, secrets, SSH clone preflight
//   - context: service dependency injection
//
// # Quick Start
//
//	settings := config.LoadSettings()
//	reg := orion.NewRegistry(orion.FromSettings(settings))
//	store, _ := checkpoint.NewFileStore(".orion/checkpoints")
//	runner := orion.NewRunner(reg, orion.WithCheckpoints(store))
//
//	graph := orion.TaskToPR(settings)
//	result, err := runner.Run(ctx, graph, orion.TaskState(
//	    "add retry handling to the fetcher",
//	    "git@github.com:acme/fetcher.git",
//	))
//
// Steps find their collaborators through the context package; see
// context.Services for wiring everything at once.
package orion
