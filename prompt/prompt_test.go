package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	loader := NewLoader(t.TempDir())

	text, err := loader.LoadWithVars("implement", map[string]any{
		"RepoPath": "/work/repo",
		"Task":     "add a healthcheck endpoint",
	})
	if err != nil {
		t.Fatalf("LoadWithVars: %v", err)
	}

	if !strings.Contains(text, "/work/repo") {
		t.Error("rendered prompt missing repo path")
	}
	if !strings.Contains(text, "add a healthcheck endpoint") {
		t.Error("rendered prompt missing task")
	}
}

func TestLoadNotFound(t *testing.T) {
	loader := NewLoader(t.TempDir())

	if _, err := loader.Load("no-such-prompt"); err == nil {
		t.Error("expected error for missing prompt")
	}
}

func TestProjectOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, ".orion", "prompts")
	if err := os.MkdirAll(promptDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	custom := "CUSTOM: {{.Task}}"
	if err := os.WriteFile(filepath.Join(promptDir, "implement.txt"), []byte(custom), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loader := NewLoader(dir)
	text, err := loader.LoadWithVars("implement", map[string]any{"Task": "x"})
	if err != nil {
		t.Fatalf("LoadWithVars: %v", err)
	}
	if text != "CUSTOM: x" {
		t.Errorf("text = %q, want project override", text)
	}
}

func TestExists(t *testing.T) {
	loader := NewLoader(t.TempDir())

	if !loader.Exists("pr_description") {
		t.Error("embedded pr_description should exist")
	}
	if loader.Exists("nope") {
		t.Error("nonexistent prompt should not exist")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, "prompts")
	os.MkdirAll(promptDir, 0755)
	os.WriteFile(filepath.Join(promptDir, "custom.txt"), []byte("hi"), 0644)

	loader := NewLoader(dir)
	names, err := loader.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := map[string]bool{"implement": false, "custom": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("List missing %q (got %v)", name, names)
		}
	}
}

func TestTemplateFuncs(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, "prompts")
	os.MkdirAll(promptDir, 0755)
	tmpl := `{{join .Items ", "}} | {{upper .Name}} | {{default "none" .Missing}}`
	os.WriteFile(filepath.Join(promptDir, "funcs.txt"), []byte(tmpl), 0644)

	loader := NewLoader(dir)
	text, err := loader.LoadWithVars("funcs", map[string]any{
		"Items": []string{"a", "b"},
		"Name":  "orion",
	})
	if err != nil {
		t.Fatalf("LoadWithVars: %v", err)
	}
	if text != "a, b | ORION | none" {
		t.Errorf("text = %q", text)
	}
}

func TestConcurrentRender(t *testing.T) {
	loader := NewLoader(t.TempDir())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loader.LoadWithVars("implement", map[string]any{
				"RepoPath": "/work/repo",
				"Task":     "concurrent render",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("LoadWithVars: %v", err)
		}
	}
}
