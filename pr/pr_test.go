package pr

import (
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	opts := NewBuilder("Add retry backoff").
		WithTask("TASK-42").
		WithBase("develop").
		WithHead("feature/retry").
		WithLabels("automation").
		WithReviewers("alice").
		AsDraft().
		Build()

	if opts.Title != "[TASK-42] Add retry backoff" {
		t.Errorf("Title = %q", opts.Title)
	}
	if opts.Base != "develop" {
		t.Errorf("Base = %q", opts.Base)
	}
	if opts.Head != "feature/retry" {
		t.Errorf("Head = %q", opts.Head)
	}
	if !opts.Draft {
		t.Error("Draft = false, want true")
	}
	if len(opts.Labels) != 1 || opts.Labels[0] != "automation" {
		t.Errorf("Labels = %v", opts.Labels)
	}
}

func TestBuilderWithSummary(t *testing.T) {
	opts := NewBuilder("Title").
		WithSummary("A summary.", []string{"change one", "change two"}, "go test ./...").
		Build()

	if !strings.Contains(opts.Body, "## Summary") {
		t.Error("missing summary section")
	}
	if !strings.Contains(opts.Body, "- change one") {
		t.Error("missing changes list")
	}
	if !strings.Contains(opts.Body, "## Test Plan") {
		t.Error("missing test plan section")
	}
	if !strings.Contains(opts.Body, "*Generated by orion*") {
		t.Error("missing generated-by footer")
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://github.com/acme/widgets.git", "github", false},
		{"git@gitlab.com:acme/widgets.git", "gitlab", false},
		{"https://gitlab.example.com/acme/widgets.git", "gitlab", false},
		{"https://bitbucket.org/acme/widgets.git", "bitbucket", false},
		{"https://example.com/acme/widgets.git", "", true},
	}

	for _, tt := range tests {
		got, err := DetectProvider(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DetectProvider(%q): expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("DetectProvider(%q): %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectProvider(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseRepoFromURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https://github.com/acme/widgets.git", "acme", "widgets", false},
		{"https://github.com/acme/widgets", "acme", "widgets", false},
		{"git@github.com:acme/widgets.git", "acme", "widgets", false},
		{"git@gitlab.com:group/project.git", "group", "project", false},
		{"nonsense", "", "", true},
		{"git@github.com:too:many:colons", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepoFromURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRepoFromURL(%q): expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepoFromURL(%q): %v", tt.url, err)
			continue
		}
		if owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ParseRepoFromURL(%q) = (%q, %q), want (%q, %q)",
				tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
		}
	}
}
