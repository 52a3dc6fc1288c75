// Package gitops provides the git operations workflow steps depend on:
// cloning, per-run worktrees, branch management, commits, and pushes.
//
// Core types:
//   - Repo: handle to a local clone with branch, commit, and worktree operations
//   - CommandRunner: interface for executing git commands (inject a fake in tests)
//   - BranchNamer: generates branch names for workflow runs
//   - CommitMessage: conventional commit message builder
//
// Example usage:
//
//	repo, err := gitops.Clone(ctx, "git@github.com:acme/widgets.git", dir)
//	wt, err := repo.CreateWorktree("orion/run-abc123")
//	defer repo.CleanupWorktree(wt)
package gitops
