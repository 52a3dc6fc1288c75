package context

import (
	"context"

	"github.com/randalmurphal/orion/artifact"
	"github.com/randalmurphal/orion/codetest"
	"github.com/randalmurphal/orion/envmgr"
	"github.com/randalmurphal/orion/generate"
	"github.com/randalmurphal/orion/gitops"
	"github.com/randalmurphal/orion/prompt"
	"github.com/randalmurphal/orion/runlog"
)

// =============================================================================
// Context Injection Helpers
// =============================================================================
// These helpers allow services to be injected into context.Context for use
// by workflow steps.

// serviceContextKey is a private type for context keys to avoid collisions
type serviceContextKey string

// Context keys for services
const (
	repoServiceKey      serviceContextKey = "orion.repo"
	generatorServiceKey serviceContextKey = "orion.generator"
	envServiceKey       serviceContextKey = "orion.env"
	testerServiceKey    serviceContextKey = "orion.tester"
	runlogServiceKey    serviceContextKey = "orion.runlog"
	artifactServiceKey  serviceContextKey = "orion.artifacts"
	promptServiceKey    serviceContextKey = "orion.prompts"
	runnerServiceKey    serviceContextKey = "orion.runner"
)

// WithRepo adds a git repository to the context
func WithRepo(ctx context.Context, repo *gitops.Repo) context.Context {
	return context.WithValue(ctx, repoServiceKey, repo)
}

// Repo extracts the git repository from context
func Repo(ctx context.Context) *gitops.Repo {
	if repo, ok := ctx.Value(repoServiceKey).(*gitops.Repo); ok {
		return repo
	}
	return nil
}

// MustRepo extracts the git repository or panics
func MustRepo(ctx context.Context) *gitops.Repo {
	repo := Repo(ctx)
	if repo == nil {
		panic("orion/context: gitops.Repo not found in context")
	}
	return repo
}

// WithGenerator adds a code generator to the context
func WithGenerator(ctx context.Context, gen *generate.Generator) context.Context {
	return context.WithValue(ctx, generatorServiceKey, gen)
}

// Generator extracts the code generator from context
func Generator(ctx context.Context) *generate.Generator {
	if gen, ok := ctx.Value(generatorServiceKey).(*generate.Generator); ok {
		return gen
	}
	return nil
}

// MustGenerator extracts the code generator or panics
func MustGenerator(ctx context.Context) *generate.Generator {
	gen := Generator(ctx)
	if gen == nil {
		panic("orion/context: generate.Generator not found in context")
	}
	return gen
}

// WithEnv adds an environment manager to the context
func WithEnv(ctx context.Context, mgr *envmgr.Manager) context.Context {
	return context.WithValue(ctx, envServiceKey, mgr)
}

// Env extracts the environment manager from context
func Env(ctx context.Context) *envmgr.Manager {
	if mgr, ok := ctx.Value(envServiceKey).(*envmgr.Manager); ok {
		return mgr
	}
	return nil
}

// MustEnv extracts the environment manager or panics
func MustEnv(ctx context.Context) *envmgr.Manager {
	mgr := Env(ctx)
	if mgr == nil {
		panic("orion/context: envmgr.Manager not found in context")
	}
	return mgr
}

// WithTester adds a test harness to the context
func WithTester(ctx context.Context, tester *codetest.Tester) context.Context {
	return context.WithValue(ctx, testerServiceKey, tester)
}

// Tester extracts the test harness from context
func Tester(ctx context.Context) *codetest.Tester {
	if tester, ok := ctx.Value(testerServiceKey).(*codetest.Tester); ok {
		return tester
	}
	return nil
}

// MustTester extracts the test harness or panics
func MustTester(ctx context.Context) *codetest.Tester {
	tester := Tester(ctx)
	if tester == nil {
		panic("orion/context: codetest.Tester not found in context")
	}
	return tester
}

// WithRunLog adds a run journal store to the context
func WithRunLog(ctx context.Context, store runlog.Store) context.Context {
	return context.WithValue(ctx, runlogServiceKey, store)
}

// RunLog extracts the run journal store from context
func RunLog(ctx context.Context) runlog.Store {
	if store, ok := ctx.Value(runlogServiceKey).(runlog.Store); ok {
		return store
	}
	return nil
}

// MustRunLog extracts the run journal store or panics
func MustRunLog(ctx context.Context) runlog.Store {
	store := RunLog(ctx)
	if store == nil {
		panic("orion/context: runlog.Store not found in context")
	}
	return store
}

// WithArtifact adds an artifact manager to the context
func WithArtifact(ctx context.Context, mgr *artifact.Manager) context.Context {
	return context.WithValue(ctx, artifactServiceKey, mgr)
}

// Artifact extracts artifact manager from context
func Artifact(ctx context.Context) *artifact.Manager {
	if mgr, ok := ctx.Value(artifactServiceKey).(*artifact.Manager); ok {
		return mgr
	}
	return nil
}

// MustArtifact extracts artifact manager or panics
func MustArtifact(ctx context.Context) *artifact.Manager {
	mgr := Artifact(ctx)
	if mgr == nil {
		panic("orion/context: artifact.Manager not found in context")
	}
	return mgr
}

// WithPrompt adds a prompt loader to the context
func WithPrompt(ctx context.Context, loader *prompt.Loader) context.Context {
	return context.WithValue(ctx, promptServiceKey, loader)
}

// Prompt extracts prompt loader from context
func Prompt(ctx context.Context) *prompt.Loader {
	if loader, ok := ctx.Value(promptServiceKey).(*prompt.Loader); ok {
		return loader
	}
	return nil
}

// MustPrompt extracts prompt loader or panics
func MustPrompt(ctx context.Context) *prompt.Loader {
	loader := Prompt(ctx)
	if loader == nil {
		panic("orion/context: prompt.Loader not found in context")
	}
	return loader
}

// WithRunner adds a command runner to the context.
// This allows steps to execute shell commands through a mockable interface.
func WithRunner(ctx context.Context, runner gitops.CommandRunner) context.Context {
	return context.WithValue(ctx, runnerServiceKey, runner)
}

// Runner extracts command runner from context.
// Returns nil if not set - callers should fall back to ExecRunner.
func Runner(ctx context.Context) gitops.CommandRunner {
	if runner, ok := ctx.Value(runnerServiceKey).(gitops.CommandRunner); ok {
		return runner
	}
	return nil
}

// GetRunner returns the command runner from context, or a default ExecRunner.
// This is the preferred way for steps to get a runner - it always returns a
// usable runner.
func GetRunner(ctx context.Context) gitops.CommandRunner {
	if runner := Runner(ctx); runner != nil {
		return runner
	}
	return gitops.NewExecRunner()
}
