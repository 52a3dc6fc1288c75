package orion

import (
	"context"

	"github.com/randalmurphal/orion/config"
	orionctx "github.com/randalmurphal/orion/context"
	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/gitops"
)

// Capability names for the built-in steps.
const (
	CapClone    = "clone"
	CapEnv      = "env"
	CapGenerate = "generate"
	CapTest     = "test"
	CapLint     = "lint"
	CapCommit   = "commit"
	CapPush     = "push"
	CapPR       = "pr"
	CapNotify   = "notify"
)

// StepConfig carries the knobs the built-in steps read at execution time.
// Zero values fall back to the defaults in FromSettings.
type StepConfig struct {
	// BaseBranch is the branch PRs target and clones check out.
	BaseBranch string

	// Model overrides the generator's default model when set.
	Model string

	// StrictTesting makes a failing test or lint run fatal to the node
	// instead of recorded-and-continued.
	StrictTesting bool

	// DraftPR opens pull requests as drafts.
	DraftPR bool

	// TestCommand and LintCommand override the tester defaults when a
	// tester has to be constructed from the working directory.
	TestCommand string
	LintCommand string
}

// FromSettings maps resolved configuration onto step knobs.
func FromSettings(s *config.Settings) StepConfig {
	return StepConfig{
		BaseBranch:    s.BaseBranch,
		Model:         s.Model,
		StrictTesting: s.StrictTesting,
		DraftPR:       s.DraftPR,
		TestCommand:   s.TestCommand,
		LintCommand:   s.LintCommand,
	}
}

func (c StepConfig) baseBranch() string {
	if c.BaseBranch == "" {
		return "main"
	}
	return c.BaseBranch
}

// NewRegistry builds a step registry with every built-in capability bound.
func NewRegistry(cfg StepConfig) *flow.Registry {
	reg := flow.NewRegistry()
	reg.RegisterFunc(CapClone, CloneStep(cfg))
	reg.RegisterFunc(CapEnv, EnvStep(cfg))
	reg.RegisterFunc(CapGenerate, GenerateStep(cfg))
	reg.RegisterFunc(CapTest, TestStep(cfg))
	reg.RegisterFunc(CapLint, LintStep(cfg))
	reg.RegisterFunc(CapCommit, CommitStep(cfg))
	reg.RegisterFunc(CapPush, PushStep(cfg))
	reg.RegisterFunc(CapPR, PRStep(cfg))
	reg.RegisterFunc(CapNotify, NotifyStep(cfg))
	return reg
}

// repoFor resolves the git repo a step should operate on: the injected
// repo when one is in the context, otherwise the working directory the
// clone step recorded in state.
func repoFor(ctx context.Context, view flow.View) (*gitops.Repo, error) {
	if repo := orionctx.Repo(ctx); repo != nil {
		return repo, nil
	}
	dir := view.GetString(FieldWorkDir)
	if dir == "" {
		return nil, ErrNoWorkDir
	}
	return gitops.Open(dir, gitops.WithRunner(orionctx.GetRunner(ctx)))
}
