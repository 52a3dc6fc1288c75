package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestResolve_Defaults(t *testing.T) {
	cfg := NewResolverAt("", "").Resolve()

	if got := cfg.Get(KeyBaseBranch); got != "main" {
		t.Errorf("base_branch = %q, want main", got)
	}
	if got := cfg.Source(KeyBaseBranch); got != SourceDefault {
		t.Errorf("source = %q, want %q", got, SourceDefault)
	}
	if got := cfg.Get(KeyModel); got != "" {
		t.Errorf("model = %q, want empty (no default)", got)
	}
}

func TestResolve_LayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	global := writeConfig(t, dir, "config.yaml",
		"base_branch: develop\nmodel: sonnet\nmax_parallel: 2\n")
	local := writeConfig(t, dir, ".orion.yaml",
		"model: opus\ndraft_pr: true\n")

	t.Setenv("ORION_MAX_PARALLEL", "8")

	cfg := NewResolverAt(global, local).Resolve()

	tests := []struct {
		key        string
		want       string
		wantSource Source
	}{
		{KeyBaseBranch, "develop", SourceGlobal},
		{KeyModel, "opus", SourceLocal},
		{KeyMaxParallel, "8", SourceEnv},
		{KeyBaseDir, ".orion", SourceDefault},
	}
	for _, tt := range tests {
		got, src := cfg.GetWithSource(tt.key)
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
		if src != tt.wantSource {
			t.Errorf("%s source = %q, want %q", tt.key, src, tt.wantSource)
		}
	}
}

func TestResolve_FileValueTypes(t *testing.T) {
	dir := t.TempDir()
	local := writeConfig(t, dir, ".orion.yaml",
		"draft_pr: true\nmax_attempts: 7\nbase_branch: release\n")

	cfg := NewResolverAt("", local).Resolve()

	if got := cfg.Get(KeyDraftPR); got != "true" {
		t.Errorf("draft_pr = %q, want true", got)
	}
	if got := cfg.Get(KeyMaxAttempts); got != "7" {
		t.Errorf("max_attempts = %q, want 7", got)
	}
	if got := cfg.Get(KeyBaseBranch); got != "release" {
		t.Errorf("base_branch = %q, want release", got)
	}
}

func TestResolve_UnknownKeyWarns(t *testing.T) {
	dir := t.TempDir()
	local := writeConfig(t, dir, ".orion.yaml", "typo_key: oops\nmodel: opus\n")

	r := NewResolverAt("", local)
	cfg := r.Resolve()

	if got := cfg.Get("typo_key"); got != "" {
		t.Errorf("typo_key = %q, want dropped", got)
	}
	if got := cfg.Get(KeyModel); got != "opus" {
		t.Errorf("model = %q, want opus", got)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "typo_key") {
		t.Errorf("Warnings = %v, want one mentioning typo_key", r.Warnings)
	}
}

func TestResolve_MalformedFileWarns(t *testing.T) {
	dir := t.TempDir()
	local := writeConfig(t, dir, ".orion.yaml", "model: [unclosed\n")

	r := NewResolverAt("", local)
	cfg := r.Resolve()

	if len(r.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one parse warning", r.Warnings)
	}
	// Defaults still apply when a file cannot be parsed.
	if got := cfg.Get(KeyBaseBranch); got != "main" {
		t.Errorf("base_branch = %q, want main", got)
	}
}

func TestResolve_MissingFilesAreQuiet(t *testing.T) {
	r := NewResolverAt(
		filepath.Join(t.TempDir(), "nope", "config.yaml"),
		filepath.Join(t.TempDir(), "nope", ".orion.yaml"),
	)
	r.Resolve()

	if len(r.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none for missing files", r.Warnings)
	}
}

func TestResolve_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	cfg := NewResolverAt("", "").Resolve()

	if got := cfg.Get(KeyNoColor); got != "true" {
		t.Errorf("no_color = %q, want true when NO_COLOR is present", got)
	}
	if got := cfg.Source(KeyNoColor); got != SourceEnv {
		t.Errorf("no_color source = %q, want env", got)
	}
}

func TestResolveWithFlags(t *testing.T) {
	cfg := NewResolverAt("", "").ResolveWithFlags(map[string]string{
		KeyModel:      "haiku",
		KeyBaseBranch: "", // empty flags never override
	})

	if got, src := cfg.GetWithSource(KeyModel); got != "haiku" || src != SourceFlag {
		t.Errorf("model = %q (%s), want haiku from flag", got, src)
	}
	if got := cfg.Get(KeyBaseBranch); got != "main" {
		t.Errorf("base_branch = %q, want default main", got)
	}
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	if got := findGitRoot(nested); got != root {
		t.Errorf("findGitRoot = %q, want %q", got, root)
	}

	plain := t.TempDir()
	if got := findGitRoot(plain); got != "" {
		t.Errorf("findGitRoot outside a repo = %q, want empty", got)
	}
}
