package pr

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// Provider opens and manages pull requests on a git host. A workflow
// run obtains its Provider from the context (see ContextWithProvider)
// so steps stay independent of the concrete host.
type Provider interface {
	// CreatePR opens a pull request for a pushed branch.
	CreatePR(ctx context.Context, opts Options) (*PullRequest, error)

	// GetPR fetches a pull request by its number.
	GetPR(ctx context.Context, id int) (*PullRequest, error)

	// MergePR merges an open pull request.
	MergePR(ctx context.Context, id int, opts MergeOptions) error
}

// Options describes the pull request a run wants opened.
type Options struct {
	Title     string // required
	Body      string // markdown description
	Base      string // target branch, "main" when empty
	Head      string // source branch
	Labels    []string
	Reviewers []string
	Assignees []string
	Draft     bool
	Metadata  map[string]string // run bookkeeping, never sent to the host
}

// MergeOptions controls how MergePR lands the change.
type MergeOptions struct {
	Method        MergeMethod
	CommitTitle   string
	CommitMessage string
	SHA           string // expected head SHA; merge fails if the branch moved
	DeleteBranch  bool
}

// MergeMethod selects the merge strategy.
type MergeMethod string

const (
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodRebase MergeMethod = "rebase"
)

// PullRequest is the host-neutral view of a created pull request.
type PullRequest struct {
	ID           int // PR number (GitHub) or MR IID (GitLab)
	URL          string
	HTMLURL      string
	Title        string
	Body         string
	State        State
	Draft        bool
	Head         string
	Base         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MergedAt     *time.Time
	MergedBy     string
	Commits      int
	Additions    int
	Deletions    int
	ChangedFiles int
	Labels       []string
	Reviewers    []string
	Assignees    []string
}

// Builder assembles Options for the PR a run opens.
type Builder struct {
	opts Options
}

// NewBuilder starts a builder targeting main with the given title.
func NewBuilder(title string) *Builder {
	return &Builder{opts: Options{Title: title, Base: "main"}}
}

// WithTask prefixes the title with a task reference, e.g.
// "[TASK-42] Add retry backoff".
func (b *Builder) WithTask(taskID string) *Builder {
	b.opts.Title = fmt.Sprintf("[%s] %s", taskID, b.opts.Title)
	return b
}

// WithSummary renders the standard run PR body: a summary section, an
// optional bullet list of changes, and an optional test plan.
func (b *Builder) WithSummary(summary string, changes []string, testPlan string) *Builder {
	var body strings.Builder
	body.WriteString("## Summary\n\n")
	body.WriteString(summary)
	if len(changes) > 0 {
		body.WriteString("\n\n## Changes\n\n")
		for _, c := range changes {
			fmt.Fprintf(&body, "- %s\n", c)
		}
	}
	if testPlan != "" {
		body.WriteString("\n## Test Plan\n\n")
		body.WriteString(testPlan)
	}
	body.WriteString("\n\n---\n*Generated by orion*")
	b.opts.Body = body.String()
	return b
}

// WithBase sets the target branch.
func (b *Builder) WithBase(base string) *Builder {
	b.opts.Base = base
	return b
}

// WithHead sets the source branch.
func (b *Builder) WithHead(head string) *Builder {
	b.opts.Head = head
	return b
}

// WithLabels appends labels.
func (b *Builder) WithLabels(labels ...string) *Builder {
	b.opts.Labels = append(b.opts.Labels, labels...)
	return b
}

// WithReviewers appends reviewers.
func (b *Builder) WithReviewers(reviewers ...string) *Builder {
	b.opts.Reviewers = append(b.opts.Reviewers, reviewers...)
	return b
}

// WithMetadata records a key/value pair on the options.
func (b *Builder) WithMetadata(key, value string) *Builder {
	if b.opts.Metadata == nil {
		b.opts.Metadata = make(map[string]string)
	}
	b.opts.Metadata[key] = value
	return b
}

// AsDraft marks the PR as a draft.
func (b *Builder) AsDraft() *Builder {
	b.opts.Draft = true
	return b
}

// Build returns the assembled options.
func (b *Builder) Build() Options {
	return b.opts
}
