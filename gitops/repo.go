package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Repo manages git operations for a local repository clone.
type Repo struct {
	path        string        // Path to the main repository
	worktreeDir string        // Directory where worktrees are created
	workDir     string        // Current working directory for commands (defaults to path)
	runner      CommandRunner // Command runner (defaults to ExecRunner)
}

// Option configures Repo.
type Option func(*Repo)

// Open creates a Repo for an existing local repository.
// It validates that the path is a git repository and applies any options.
func Open(path string, opts ...Option) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	r := &Repo{
		path:        absPath,
		worktreeDir: ".worktrees",
		workDir:     absPath,
		runner:      NewExecRunner(),
	}

	for _, opt := range opts {
		opt(r)
	}

	// Verify it's a git repository
	if _, err := r.runner.Run(absPath, "git", "rev-parse", "--git-dir"); err != nil {
		return nil, ErrNotGitRepo
	}

	return r, nil
}

// Clone clones remoteURL into dir and returns a Repo for the clone.
// A depth of 0 means a full clone.
func Clone(ctx context.Context, remoteURL, dir string, opts ...CloneOption) (*Repo, error) {
	cfg := cloneConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	args := []string{"clone"}
	if cfg.depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", cfg.depth))
	}
	if cfg.branch != "" {
		args = append(args, "--branch", cfg.branch)
	}
	args = append(args, remoteURL, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &Error{Op: "clone", Output: strings.TrimSpace(string(out)), Err: ErrCloneFailed}
	}

	repoOpts := cfg.repoOpts
	return Open(dir, repoOpts...)
}

// CloneOption configures Clone.
type CloneOption func(*cloneConfig)

type cloneConfig struct {
	depth    int
	branch   string
	repoOpts []Option
}

// CloneDepth limits clone history to n commits.
func CloneDepth(n int) CloneOption {
	return func(c *cloneConfig) { c.depth = n }
}

// CloneBranch checks out the given branch after cloning.
func CloneBranch(branch string) CloneOption {
	return func(c *cloneConfig) { c.branch = branch }
}

// CloneRepoOptions passes options through to the resulting Repo.
func CloneRepoOptions(opts ...Option) CloneOption {
	return func(c *cloneConfig) { c.repoOpts = opts }
}

// WithWorktreeDir sets the directory where worktrees are created.
// Default is ".worktrees" relative to the repository root.
func WithWorktreeDir(dir string) Option {
	return func(r *Repo) {
		r.worktreeDir = dir
	}
}

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(r *Repo) {
		r.runner = runner
	}
}

// Path returns the path to the main repository.
func (r *Repo) Path() string {
	return r.path
}

// WorkDir returns the current working directory for git commands.
// This is the repo path unless working in a worktree.
func (r *Repo) WorkDir() string {
	return r.workDir
}

// WorktreeDir returns the path to the worktrees directory.
func (r *Repo) WorktreeDir() string {
	return filepath.Join(r.path, r.worktreeDir)
}

// InWorktree returns a new Repo that operates in the specified worktree.
func (r *Repo) InWorktree(worktreePath string) *Repo {
	return &Repo{
		path:        r.path,
		worktreeDir: r.worktreeDir,
		workDir:     worktreePath,
		runner:      r.runner,
	}
}

// CurrentBranch returns the current branch name.
func (r *Repo) CurrentBranch() (string, error) {
	branch, err := r.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Err: err}
	}
	return branch, nil
}

// Checkout switches to the specified ref (branch, tag, or commit).
func (r *Repo) Checkout(ref string) error {
	if _, err := r.run("checkout", ref); err != nil {
		return &Error{Op: "checkout", Err: err}
	}
	return nil
}

// CreateBranch creates a new branch at HEAD.
func (r *Repo) CreateBranch(name string) error {
	if _, err := r.run("branch", name); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return ErrBranchExists
		}
		return &Error{Op: "create branch", Err: err}
	}
	return nil
}

// DeleteBranch deletes a branch. If force is true, uses -D instead of -d.
func (r *Repo) DeleteBranch(name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := r.run("branch", flag, name); err != nil {
		return &Error{Op: "delete branch", Err: err}
	}
	return nil
}

// BranchExists checks if a branch exists.
func (r *Repo) BranchExists(name string) bool {
	_, err := r.run("rev-parse", "--verify", name)
	return err == nil
}

// CheckoutNew creates and checks out a new branch at the current HEAD.
func (r *Repo) CheckoutNew(name string) error {
	if err := r.CreateBranch(name); err != nil {
		return err
	}
	return r.Checkout(name)
}

// Stage adds files to the staging area.
func (r *Repo) Stage(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	if _, err := r.run(args...); err != nil {
		return &Error{Op: "stage files", Err: err}
	}
	return nil
}

// StageAll stages all changes (git add -A).
func (r *Repo) StageAll() error {
	if _, err := r.run("add", "-A"); err != nil {
		return &Error{Op: "stage all", Err: err}
	}
	return nil
}

// Commit creates a commit with the given message.
// Returns ErrNothingToCommit if there are no staged changes.
func (r *Repo) Commit(message string) error {
	output, err := r.run("commit", "-m", message)
	if err != nil {
		if strings.Contains(output, "nothing to commit") ||
			strings.Contains(err.Error(), "nothing to commit") {
			return ErrNothingToCommit
		}
		return &Error{Op: "commit", Output: output, Err: err}
	}
	return nil
}

// Push pushes the branch to the remote.
// If setUpstream is true, uses -u to set upstream tracking.
func (r *Repo) Push(remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)

	if _, err := r.run(args...); err != nil {
		return &Error{Op: "push", Err: err}
	}
	return nil
}

// Pull pulls changes from the remote.
func (r *Repo) Pull(remote, branch string) error {
	if _, err := r.run("pull", remote, branch); err != nil {
		return &Error{Op: "pull", Err: err}
	}
	return nil
}

// Fetch fetches updates from the remote.
func (r *Repo) Fetch(remote string) error {
	if _, err := r.run("fetch", remote); err != nil {
		return &Error{Op: "fetch", Err: err}
	}
	return nil
}

// Diff returns the diff between two refs.
func (r *Repo) Diff(base, head string) (string, error) {
	diff, err := r.run("diff", base+"..."+head)
	if err != nil {
		return "", &Error{Op: "diff", Err: err}
	}
	return diff, nil
}

// DiffStaged returns the diff of staged changes.
func (r *Repo) DiffStaged() (string, error) {
	diff, err := r.run("diff", "--cached")
	if err != nil {
		return "", &Error{Op: "diff staged", Err: err}
	}
	return diff, nil
}

// Status returns the working tree status in short format.
func (r *Repo) Status() (string, error) {
	status, err := r.run("status", "--short")
	if err != nil {
		return "", &Error{Op: "status", Err: err}
	}
	return status, nil
}

// IsClean returns true if the working tree has no uncommitted changes.
func (r *Repo) IsClean() (bool, error) {
	status, err := r.Status()
	if err != nil {
		return false, err
	}
	return status == "", nil
}

// HeadCommit returns the current HEAD commit SHA.
func (r *Repo) HeadCommit() (string, error) {
	sha, err := r.run("rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Err: err}
	}
	return sha, nil
}

// IsBranchPushed checks if the branch exists on the remote.
func (r *Repo) IsBranchPushed(branch string) bool {
	_, err := r.run("rev-parse", "--verify", "origin/"+branch)
	return err == nil
}

// RemoteURL returns the URL of the specified remote.
func (r *Repo) RemoteURL(remote string) (string, error) {
	url, err := r.run("remote", "get-url", remote)
	if err != nil {
		return "", &Error{Op: "get remote URL", Err: err}
	}
	return url, nil
}

// CommitResult contains the result of a commit operation.
type CommitResult struct {
	SHA     string    // Full commit SHA
	Branch  string    // Branch name
	Message string    // Commit message
	Date    time.Time // Commit timestamp
}

// PushResult contains the result of a push operation.
type PushResult struct {
	Remote      string // Remote name (e.g., "origin")
	Branch      string // Branch that was pushed
	SHA         string // Commit SHA that was pushed
	SetUpstream bool   // Whether upstream tracking was set
	URL         string // Remote URL (for reference)
}

// CommitAll stages all changes and commits with the given message.
// Returns ErrNothingToCommit if there are no changes to commit.
func (r *Repo) CommitAll(message string) (*CommitResult, error) {
	if err := r.StageAll(); err != nil {
		return nil, fmt.Errorf("stage all: %w", err)
	}

	if err := r.Commit(message); err != nil {
		return nil, err
	}

	sha, err := r.HeadCommit()
	if err != nil {
		return nil, fmt.Errorf("get head: %w", err)
	}

	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}

	return &CommitResult{
		SHA:     sha,
		Branch:  branch,
		Message: message,
		Date:    time.Now(),
	}, nil
}

// PushCurrent pushes the current branch to origin.
// Automatically sets upstream tracking if the branch hasn't been pushed before.
func (r *Repo) PushCurrent() (*PushResult, error) {
	return r.PushCurrentTo("origin")
}

// PushCurrentTo pushes the current branch to the specified remote.
// Automatically sets upstream tracking if needed.
func (r *Repo) PushCurrentTo(remote string) (*PushResult, error) {
	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("get current branch: %w", err)
	}

	setUpstream := !r.IsBranchPushed(branch)

	if err := r.Push(remote, branch, setUpstream); err != nil {
		return nil, err
	}

	sha, err := r.HeadCommit()
	if err != nil {
		return nil, fmt.Errorf("get head: %w", err)
	}

	url, _ := r.RemoteURL(remote) // URL is informational

	return &PushResult{
		Remote:      remote,
		Branch:      branch,
		SHA:         sha,
		SetUpstream: setUpstream,
		URL:         url,
	}, nil
}

// run executes a git command and returns stdout.
func (r *Repo) run(args ...string) (string, error) {
	return r.runner.Run(r.workDir, "git", args...)
}

// SanitizeBranchName converts a branch name to a safe directory name.
func SanitizeBranchName(branch string) string {
	safe := strings.ReplaceAll(branch, "/", "-")
	safe = strings.ToLower(safe)
	safe = regexp.MustCompile(`[^a-z0-9-]`).ReplaceAllString(safe, "")
	safe = regexp.MustCompile(`-+`).ReplaceAllString(safe, "-")
	safe = strings.Trim(safe, "-")
	return safe
}
