package orion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/gitops"
)

// CommitStep commits everything the generate step changed as a single
// conventional commit. A clean working copy is a success with
// committed=false so the rest of the pipeline can skip publishing.
//
// Reads: task, workdir.
// Writes: committed, commit_sha.
func CommitStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		repo, err := repoFor(ctx, view)
		if err != nil {
			return flow.Fatal(err)
		}

		msg := gitops.NewCommitMessage(gitops.CommitTypeFeat, commitSubject(view.GetString(FieldTask)))
		res, err := repo.CommitAll(msg.String())
		if err != nil {
			if errors.Is(err, gitops.ErrNothingToCommit) {
				return flow.Succeedf(flow.Patch{FieldCommitted: false}, "nothing to commit")
			}
			return flow.Fatal(fmt.Errorf("commit: %w", err))
		}

		return flow.Succeedf(flow.Patch{
			FieldCommitted: true,
			FieldCommitSHA: res.SHA,
		}, "committed %.8s on %s", res.SHA, res.Branch)
	}
}

// PushStep pushes the run branch to origin. Push failures are resource
// failures: the remote is usually reachable again on retry.
//
// Reads: committed, workdir.
// Writes: pushed.
func PushStep(cfg StepConfig) flow.StepFunc {
	return func(ctx context.Context, view flow.View) flow.Outcome {
		if !view.GetBool(FieldCommitted) {
			return flow.Succeedf(flow.Patch{FieldPushed: false}, "no commit to push")
		}
		repo, err := repoFor(ctx, view)
		if err != nil {
			return flow.Fatal(err)
		}

		res, err := repo.PushCurrent()
		if err != nil {
			return flow.Unavailable(fmt.Errorf("push: %w", err))
		}
		return flow.Succeedf(flow.Patch{FieldPushed: true}, "pushed %s to %s", res.Branch, res.Remote)
	}
}

// commitSubject derives a commit subject from the task description: the
// first line, trimmed to fit a conventional commit header.
func commitSubject(taskText string) string {
	subject := taskText
	if i := strings.IndexByte(subject, '\n'); i >= 0 {
		subject = subject[:i]
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "automated change"
	}
	const max = 60
	if len(subject) > max {
		subject = strings.TrimSpace(subject[:max]) + "..."
	}
	return subject
}
