package gitops

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// BranchNamer generates branch names following conventions.
type BranchNamer struct {
	TypePrefix   string // Branch type prefix (e.g., "feature", "bugfix", "orion")
	IncludeTitle bool   // Whether to include title slug in branch name
	MaxLength    int    // Maximum branch name length
}

// DefaultBranchNamer returns a namer with default settings.
func DefaultBranchNamer() *BranchNamer {
	return &BranchNamer{
		TypePrefix:   "feature",
		IncludeTitle: true,
		MaxLength:    100,
	}
}

// ForTask generates a branch name from a task ID and title.
// Example: "TASK-421", "Add User Authentication" -> "feature/task-421-add-user-authentication"
func (n *BranchNamer) ForTask(taskID, title string) string {
	parts := []string{strings.ToLower(taskID)}

	if n.IncludeTitle && title != "" {
		slug := Slugify(title)
		if len(slug) > 50 {
			slug = slug[:50]
			slug = strings.TrimRight(slug, "-")
		}
		parts = append(parts, slug)
	}

	branch := n.TypePrefix + "/" + strings.Join(parts, "-")

	if n.MaxLength > 0 && len(branch) > n.MaxLength {
		branch = branch[:n.MaxLength]
	}

	return CleanBranch(branch)
}

// ForRun generates a branch name for an automated workflow run.
// Example: "task-to-pr", "run-8f2k" -> "orion/task-to-pr-run-8f2k-1734567890"
func (n *BranchNamer) ForRun(graphName, runID string) string {
	timestamp := time.Now().Unix()
	branch := fmt.Sprintf("orion/%s-%s-%d",
		Slugify(graphName),
		Slugify(runID),
		timestamp,
	)

	if n.MaxLength > 0 && len(branch) > n.MaxLength {
		branch = branch[:n.MaxLength]
	}

	return CleanBranch(branch)
}

// ForFeature generates a simple feature branch name.
// Example: "add-caching" -> "feature/add-caching"
func (n *BranchNamer) ForFeature(name string) string {
	branch := n.TypePrefix + "/" + Slugify(name)

	if n.MaxLength > 0 && len(branch) > n.MaxLength {
		branch = branch[:n.MaxLength]
	}

	return CleanBranch(branch)
}

// Slugify converts a string to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = regexp.MustCompile(`[^a-z0-9-]`).ReplaceAllString(s, "")
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

// CleanBranch ensures a branch name is valid.
func CleanBranch(s string) string {
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")

	// Remove trailing hyphens (but not before /)
	parts := strings.Split(s, "/")
	for i, part := range parts {
		parts[i] = strings.TrimRight(part, "-")
	}
	return strings.Join(parts, "/")
}

// ParseBranch extracts components from a branch name.
// Returns (type, identifier, extra) where extra is any additional suffix.
func ParseBranch(branch string) (branchType, identifier, extra string) {
	branch = strings.TrimPrefix(branch, "refs/heads/")

	parts := strings.SplitN(branch, "/", 2)
	if len(parts) == 1 {
		return "", branch, ""
	}

	branchType = parts[0]
	rest := parts[1]

	idParts := strings.SplitN(rest, "-", 2)
	identifier = idParts[0]
	if len(idParts) > 1 {
		extra = idParts[1]
	}

	return branchType, identifier, extra
}
