package pr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubProvider implements Provider for GitHub repositories.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubProvider creates a new GitHub provider.
// token is a personal access token or GitHub App token.
// owner and repo identify the repository (e.g., "acme", "widgets").
func NewGitHubProvider(token, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	return &GitHubProvider{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
// Example: "https://github.com/acme/widgets.git"
func NewGitHubProviderFromURL(token, remoteURL string) (*GitHubProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, owner, repo)
}

// CreatePR creates a new pull request.
func (p *GitHubProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	base := opts.Base
	if base == "" {
		base = "main"
	}

	newPR := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Base:  github.String(base),
		Head:  github.String(opts.Head),
		Draft: github.Bool(opts.Draft),
	}

	pr, resp, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, newPR)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			if strings.Contains(err.Error(), "A pull request already exists") {
				return nil, ErrExists
			}
			if strings.Contains(err.Error(), "No commits between") {
				return nil, ErrNoChanges
			}
		}
		return nil, fmt.Errorf("create PR: %w", err)
	}

	// Labels, reviewers, and assignees are best-effort: the PR exists already.
	if len(opts.Labels) > 0 {
		_, _, err = p.client.Issues.AddLabelsToIssue(ctx, p.owner, p.repo, pr.GetNumber(), opts.Labels)
		if err != nil {
			slog.Warn("failed to add labels to PR", "error", err, "pr", pr.GetNumber(), "labels", opts.Labels)
		}
	}

	if len(opts.Reviewers) > 0 {
		_, _, err = p.client.PullRequests.RequestReviewers(ctx, p.owner, p.repo, pr.GetNumber(),
			github.ReviewersRequest{Reviewers: opts.Reviewers})
		if err != nil {
			slog.Warn("failed to request reviewers", "error", err, "pr", pr.GetNumber(), "reviewers", opts.Reviewers)
		}
	}

	if len(opts.Assignees) > 0 {
		_, _, err = p.client.Issues.AddAssignees(ctx, p.owner, p.repo, pr.GetNumber(), opts.Assignees)
		if err != nil {
			slog.Warn("failed to add assignees", "error", err, "pr", pr.GetNumber(), "assignees", opts.Assignees)
		}
	}

	return p.prFromGitHub(pr), nil
}

// GetPR retrieves a pull request by number.
func (p *GitHubProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	pr, resp, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get PR: %w", err)
	}
	return p.prFromGitHub(pr), nil
}

// MergePR merges a pull request.
func (p *GitHubProvider) MergePR(ctx context.Context, id int, opts MergeOptions) error {
	mergeOpts := &github.PullRequestOptions{
		CommitTitle: opts.CommitTitle,
		SHA:         opts.SHA,
	}

	switch opts.Method {
	case MergeMethodSquash:
		mergeOpts.MergeMethod = "squash"
	case MergeMethodRebase:
		mergeOpts.MergeMethod = "rebase"
	default:
		mergeOpts.MergeMethod = "merge"
	}

	_, resp, err := p.client.PullRequests.Merge(ctx, p.owner, p.repo, id, opts.CommitMessage, mergeOpts)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return ErrNotFound
			case http.StatusMethodNotAllowed:
				return ErrClosed
			case http.StatusConflict:
				return ErrMergeConflict
			}
		}
		return fmt.Errorf("merge PR: %w", err)
	}

	if opts.DeleteBranch {
		pr, _, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, id)
		if err != nil {
			slog.Warn("failed to get PR for branch deletion", "error", err, "pr", id)
		} else if pr.Head != nil && pr.Head.Ref != nil {
			if _, err := p.client.Git.DeleteRef(ctx, p.owner, p.repo, "heads/"+*pr.Head.Ref); err != nil {
				slog.Warn("failed to delete branch after merge", "error", err, "pr", id, "branch", *pr.Head.Ref)
			}
		}
	}

	return nil
}

// prFromGitHub converts a GitHub PR to our PullRequest type.
func (p *GitHubProvider) prFromGitHub(pr *github.PullRequest) *PullRequest {
	result := &PullRequest{
		ID:           pr.GetNumber(),
		URL:          pr.GetURL(),
		HTMLURL:      pr.GetHTMLURL(),
		Title:        pr.GetTitle(),
		Body:         pr.GetBody(),
		Draft:        pr.GetDraft(),
		Commits:      pr.GetCommits(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}

	switch pr.GetState() {
	case "open":
		result.State = StateOpen
	case "closed":
		if pr.GetMerged() {
			result.State = StateMerged
		} else {
			result.State = StateClosed
		}
	}

	if pr.Head != nil {
		result.Head = pr.Head.GetRef()
	}
	if pr.Base != nil {
		result.Base = pr.Base.GetRef()
	}

	if pr.CreatedAt != nil {
		result.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt != nil {
		result.UpdatedAt = pr.UpdatedAt.Time
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		result.MergedAt = &t
	}
	if pr.MergedBy != nil {
		result.MergedBy = pr.MergedBy.GetLogin()
	}

	for _, label := range pr.Labels {
		result.Labels = append(result.Labels, label.GetName())
	}

	for _, reviewer := range pr.RequestedReviewers {
		result.Reviewers = append(result.Reviewers, reviewer.GetLogin())
	}

	for _, assignee := range pr.Assignees {
		result.Assignees = append(result.Assignees, assignee.GetLogin())
	}

	return result
}
