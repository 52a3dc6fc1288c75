package context

import (
	"context"

	"github.com/randalmurphal/orion/artifact"
	"github.com/randalmurphal/orion/codetest"
	"github.com/randalmurphal/orion/envmgr"
	"github.com/randalmurphal/orion/generate"
	"github.com/randalmurphal/orion/gitops"
	"github.com/randalmurphal/orion/notify"
	"github.com/randalmurphal/orion/pr"
	"github.com/randalmurphal/orion/prompt"
	"github.com/randalmurphal/orion/runlog"
)

// Services wraps all orion services for convenient initialization
type Services struct {
	Repo      *gitops.Repo
	Generator *generate.Generator
	PR        pr.Provider
	Env       *envmgr.Manager
	Tester    *codetest.Tester
	RunLog    runlog.Store
	Artifacts *artifact.Manager
	Prompts   *prompt.Loader
	Notifier  notify.Notifier      // Optional notification service
	Runner    gitops.CommandRunner // Optional command runner (defaults to ExecRunner)
}

// InjectAll adds all configured services to the context
func (s *Services) InjectAll(ctx context.Context) context.Context {
	if s.Repo != nil {
		ctx = WithRepo(ctx, s.Repo)
	}
	if s.Generator != nil {
		ctx = WithGenerator(ctx, s.Generator)
	}
	if s.PR != nil {
		ctx = pr.ContextWithProvider(ctx, s.PR)
	}
	if s.Env != nil {
		ctx = WithEnv(ctx, s.Env)
	}
	if s.Tester != nil {
		ctx = WithTester(ctx, s.Tester)
	}
	if s.RunLog != nil {
		ctx = WithRunLog(ctx, s.RunLog)
	}
	if s.Artifacts != nil {
		ctx = WithArtifact(ctx, s.Artifacts)
	}
	if s.Prompts != nil {
		ctx = WithPrompt(ctx, s.Prompts)
	}
	if s.Notifier != nil {
		ctx = notify.WithNotifier(ctx, s.Notifier)
	}
	if s.Runner != nil {
		ctx = WithRunner(ctx, s.Runner)
	}
	return ctx
}

// Config configures NewServices
type Config struct {
	RepoPath  string // Path to git repository (required)
	BaseDir   string // Base directory for storage (default: ".orion")
	PromptDir string // Directory for prompt templates (default: ".orion/prompts")

	// Generator configuration
	Model   string // Model to use (empty = generator default)
	WorkDir string // Working directory for generation (default: RepoPath)

	// Test harness configuration
	TestCommand string // Override test command (default: codetest default)
	LintCommand string // Override lint command (default: codetest default)
}

// NewServices creates Services with common defaults
func NewServices(cfg Config) (*Services, error) {
	s := &Services{}

	repo, err := gitops.Open(cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	s.Repo = repo

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = cfg.RepoPath
	}

	gen, err := generate.New(generate.Config{Model: cfg.Model})
	if err != nil {
		return nil, err
	}
	s.Generator = gen

	s.Env = envmgr.New(cfg.RepoPath)

	var testerOpts []codetest.Option
	if cfg.TestCommand != "" {
		testerOpts = append(testerOpts, codetest.WithTestCommand(cfg.TestCommand))
	}
	if cfg.LintCommand != "" {
		testerOpts = append(testerOpts, codetest.WithLintCommand(cfg.LintCommand))
	}
	s.Tester = codetest.New(workDir, testerOpts...)

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = ".orion"
	}

	runs, err := runlog.NewFileStore(runlog.StoreConfig{
		BaseDir: baseDir,
	})
	if err != nil {
		return nil, err
	}
	s.RunLog = runs

	s.Artifacts = artifact.NewManager(artifact.Config{
		BaseDir: baseDir,
	})

	promptDir := cfg.PromptDir
	if promptDir == "" {
		promptDir = baseDir + "/prompts"
	}
	s.Prompts = prompt.NewLoader(promptDir)

	return s, nil
}
