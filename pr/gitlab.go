package pr

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// GitLabProvider implements Provider on top of GitLab merge requests.
type GitLabProvider struct {
	client  *gitlab.Client
	project string // numeric ID or "namespace/project"
}

// NewGitLabProvider creates a provider for one GitLab project. baseURL
// is empty for gitlab.com and the instance URL for self-hosted
// installs.
func NewGitLabProvider(token, baseURL, project string) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if project == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{client: client, project: project}, nil
}

// NewGitLabProviderFromURL creates a provider from a git remote URL,
// deriving the instance URL for self-hosted GitLab.
func NewGitLabProviderFromURL(token, remoteURL string) (*GitLabProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	var baseURL string
	if !strings.Contains(remoteURL, "gitlab.com") {
		host := strings.TrimPrefix(strings.TrimPrefix(remoteURL, "https://"), "http://")
		if i := strings.IndexAny(host, "/:"); i > 0 {
			baseURL = "https://" + host[:i]
		}
	}

	return NewGitLabProvider(token, baseURL, owner+"/"+repo)
}

// CreatePR opens a merge request for the pushed branch.
func (p *GitLabProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	target := opts.Base
	if target == "" {
		target = "main"
	}

	title := opts.Title
	if opts.Draft {
		// The Draft flag has no dedicated field in the create API;
		// GitLab recognizes the title prefix.
		title = "Draft: " + title
	}

	mrOpts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		Description:  gitlab.Ptr(opts.Body),
		SourceBranch: gitlab.Ptr(opts.Head),
		TargetBranch: gitlab.Ptr(target),
	}
	if len(opts.Labels) > 0 {
		mrOpts.Labels = gitlab.Ptr(gitlab.LabelOptions(opts.Labels))
	}
	// GitLab addresses people by numeric ID, so only numeric entries
	// are forwarded.
	if ids := numericIDs(opts.Assignees); len(ids) > 0 {
		mrOpts.AssigneeIDs = gitlab.Ptr(ids)
	}
	if ids := numericIDs(opts.Reviewers); len(ids) > 0 {
		mrOpts.ReviewerIDs = gitlab.Ptr(ids)
	}

	mr, resp, err := p.client.MergeRequests.CreateMergeRequest(p.project, mrOpts)
	if err != nil {
		if resp != nil {
			switch {
			case resp.StatusCode == http.StatusConflict:
				return nil, ErrExists
			case resp.StatusCode == http.StatusBadRequest &&
				strings.Contains(err.Error(), "No commits between"):
				return nil, ErrNoChanges
			}
		}
		return nil, fmt.Errorf("create MR: %w", err)
	}

	return fromMergeRequest(mr), nil
}

// GetPR fetches a merge request by IID.
func (p *GitLabProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(p.project, id, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get MR: %w", err)
	}
	return fromMergeRequest(mr), nil
}

// MergePR accepts a merge request. GitLab has no rebase-merge accept
// mode, so MergeMethodRebase falls back to a regular merge.
func (p *GitLabProvider) MergePR(ctx context.Context, id int, opts MergeOptions) error {
	accept := &gitlab.AcceptMergeRequestOptions{}
	if opts.CommitMessage != "" {
		accept.MergeCommitMessage = gitlab.Ptr(opts.CommitMessage)
	}
	if opts.SHA != "" {
		accept.SHA = gitlab.Ptr(opts.SHA)
	}
	if opts.DeleteBranch {
		accept.ShouldRemoveSourceBranch = gitlab.Ptr(true)
	}
	if opts.Method == MergeMethodSquash {
		accept.Squash = gitlab.Ptr(true)
		if opts.CommitMessage != "" {
			accept.SquashCommitMessage = gitlab.Ptr(opts.CommitMessage)
		}
	}

	_, resp, err := p.client.MergeRequests.AcceptMergeRequest(p.project, id, accept)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return ErrNotFound
			case http.StatusMethodNotAllowed:
				return ErrClosed
			case http.StatusNotAcceptable:
				return ErrMergeConflict
			}
		}
		return fmt.Errorf("merge MR: %w", err)
	}
	return nil
}

// numericIDs keeps the entries that parse as GitLab user IDs.
func numericIDs(names []string) []int {
	var ids []int
	for _, n := range names {
		if id, err := strconv.Atoi(n); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// fromMergeRequest maps a GitLab merge request onto the host-neutral
// PullRequest.
func fromMergeRequest(mr *gitlab.MergeRequest) *PullRequest {
	out := &PullRequest{
		ID:      mr.IID,
		URL:     mr.WebURL,
		HTMLURL: mr.WebURL,
		Title:   mr.Title,
		Body:    mr.Description,
		Head:    mr.SourceBranch,
		Base:    mr.TargetBranch,
		Labels:  mr.Labels,
		Draft: strings.HasPrefix(mr.Title, "Draft:") ||
			strings.HasPrefix(mr.Title, "WIP:"),
	}

	switch mr.State {
	case "opened":
		out.State = StateOpen
	case "merged":
		out.State = StateMerged
	case "closed":
		out.State = StateClosed
	}

	if n, err := strconv.Atoi(mr.ChangesCount); err == nil {
		out.ChangedFiles = n
	}

	if mr.CreatedAt != nil {
		out.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		out.UpdatedAt = *mr.UpdatedAt
	}
	out.MergedAt = mr.MergedAt
	if mr.MergedBy != nil {
		out.MergedBy = mr.MergedBy.Username
	}

	for _, r := range mr.Reviewers {
		out.Reviewers = append(out.Reviewers, r.Username)
	}
	for _, a := range mr.Assignees {
		out.Assignees = append(out.Assignees, a.Username)
	}
	return out
}
