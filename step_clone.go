package orion

import (
	"context"
	"fmt"
	"os"

	"github.com/randalmurphal/orion/auth/ssh"
	orionctx "github.com/randalmurphal/orion/context"
	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/gitops"
)

// CloneStep prepares the working copy for a run. With a repo injected
// into the context it branches off the current HEAD; otherwise it clones
// the remote named in state into a fresh directory first. SSH remotes are
// preflighted for credentials before the clone so a missing key fails
// fast instead of hanging on a password prompt.
//
// Reads: remote, run_id, graph.
// Writes: workdir, branch, cloned.
func CloneStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		repo := orionctx.Repo(ctx)
		cloned := false

		if repo == nil {
			remote := view.GetString(FieldRemote)
			if remote == "" {
				return flow.Fatal(fmt.Errorf("clone: no repo in context and no remote in state"))
			}
			if err := ssh.Preflight(remote); err != nil {
				return flow.Fatal(fmt.Errorf("clone %s: %w", remote, err))
			}

			dir, err := os.MkdirTemp("", "orion-run-*")
			if err != nil {
				return flow.Fatal(fmt.Errorf("clone workspace: %w", err))
			}
			repo, err = gitops.Clone(ctx, remote, dir,
				gitops.CloneBranch(cfg.baseBranch()),
				gitops.CloneRepoOptions(gitops.WithRunner(orionctx.GetRunner(ctx))),
			)
			if err != nil {
				os.RemoveAll(dir)
				return flow.Unavailable(fmt.Errorf("clone %s: %w", remote, err))
			}
			cloned = true
		}

		branch := gitops.DefaultBranchNamer().ForRun(
			view.GetString(FieldGraph), view.GetString(FieldRunID))
		if err := repo.CheckoutNew(branch); err != nil {
			return flow.Fatal(fmt.Errorf("create run branch %s: %w", branch, err))
		}

		return flow.Succeedf(flow.Patch{
			FieldWorkDir: repo.WorkDir(),
			FieldBranch:  branch,
			FieldCloned:  cloned,
		}, "working copy on %s", branch)
	}
}
