package gitops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Worktree represents an active git worktree.
type Worktree struct {
	Path   string // Filesystem path to the worktree
	Branch string // Branch checked out in the worktree
	Commit string // HEAD commit SHA
}

// CreateWorktree creates an isolated worktree for the branch.
// If the branch doesn't exist, it will be created at HEAD.
// Returns the path to the worktree directory.
func (r *Repo) CreateWorktree(branch string) (string, error) {
	safeName := SanitizeBranchName(branch)
	worktreePath := filepath.Join(r.path, r.worktreeDir, safeName)

	if _, err := os.Stat(worktreePath); err == nil {
		return "", ErrWorktreeExists
	}

	worktreesDir := filepath.Join(r.path, r.worktreeDir)
	if err := os.MkdirAll(worktreesDir, 0o755); err != nil {
		return "", fmt.Errorf("create worktrees dir: %w", err)
	}

	// Try to create worktree with a new branch
	_, err := r.run("worktree", "add", "-b", branch, worktreePath, "HEAD")
	if err != nil {
		// Branch may already exist, try without -b
		_, err = r.run("worktree", "add", worktreePath, branch)
		if err != nil {
			if strings.Contains(err.Error(), "not a valid reference") ||
				strings.Contains(err.Error(), "invalid reference") {
				return "", fmt.Errorf("branch %q does not exist and could not be created: %w", branch, err)
			}
			return "", &Error{Op: "create worktree", Err: err}
		}
	}

	return worktreePath, nil
}

// CleanupWorktree removes a worktree and its registration.
// Falls back to --force if the worktree has uncommitted changes.
func (r *Repo) CleanupWorktree(worktreePath string) error {
	_, err := r.run("worktree", "remove", worktreePath)
	if err != nil {
		_, err = r.run("worktree", "remove", "--force", worktreePath)
		if err != nil {
			return &Error{Op: "cleanup worktree", Err: err}
		}
	}
	return nil
}

// ListWorktrees returns all active worktrees.
func (r *Repo) ListWorktrees() ([]Worktree, error) {
	output, err := r.run("worktree", "list", "--porcelain")
	if err != nil {
		return nil, &Error{Op: "list worktrees", Err: err}
	}

	var worktrees []Worktree
	var current Worktree

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Path != "" {
				worktrees = append(worktrees, current)
				current = Worktree{}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			// Format: branch refs/heads/branch-name
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "detached":
			current.Branch = "(detached)"
		}
	}

	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	return worktrees, nil
}

// GetWorktree returns information about a specific worktree by branch name.
func (r *Repo) GetWorktree(branch string) (*Worktree, error) {
	worktrees, err := r.ListWorktrees()
	if err != nil {
		return nil, err
	}

	for _, wt := range worktrees {
		if wt.Branch == branch {
			return &wt, nil
		}
	}

	return nil, ErrWorktreeNotFound
}

// PruneWorktrees removes stale worktree administrative files.
func (r *Repo) PruneWorktrees() error {
	if _, err := r.run("worktree", "prune"); err != nil {
		return &Error{Op: "prune worktrees", Err: err}
	}
	return nil
}
