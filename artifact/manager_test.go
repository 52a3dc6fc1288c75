package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randalmurphal/orion/codetest"
	"github.com/randalmurphal/orion/flow"
)

func TestNewManager(t *testing.T) {
	m := NewManager(Config{})

	if m.baseDir != ".orion" {
		t.Errorf("baseDir = %q, want %q", m.baseDir, ".orion")
	}
	if m.compressAbove != 10*1024 {
		t.Errorf("compressAbove = %d, want %d", m.compressAbove, 10*1024)
	}
	if m.retentionDays != 30 {
		t.Errorf("retentionDays = %d, want 30", m.retentionDays)
	}
}

func TestManager_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{BaseDir: dir})

	runID := "test-run-001"
	content := []byte("# Prompt\n\nImplement the feature.")

	// Save
	err := m.Save(runID, "prompt.md", content)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Load
	loaded, err := m.Load(runID, "prompt.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if string(loaded) != string(content) {
		t.Errorf("content mismatch:\ngot:  %q\nwant: %q", string(loaded), string(content))
	}
}

func TestManager_Compression(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{
		BaseDir:       dir,
		CompressAbove: 100, // Very low threshold for testing
	})

	runID := "test-run-001"
	// Create content larger than threshold
	content := []byte(strings.Repeat("Test content. ", 50)) // ~700 bytes

	// Save (should compress)
	err := m.Save(runID, "large.txt", content)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Check compressed file exists
	compressedPath := filepath.Join(dir, "runs", runID, "artifacts", "large.txt.gz")
	if _, err := os.Stat(compressedPath); os.IsNotExist(err) {
		t.Error("compressed file should exist")
	}

	// Load (should decompress transparently)
	loaded, err := m.Load(runID, "large.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if string(loaded) != string(content) {
		t.Error("content mismatch after compression roundtrip")
	}
}

func TestManager_BinaryNotCompressed(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{BaseDir: dir, CompressAbove: 10})

	runID := "test-run-001"
	content := []byte(strings.Repeat("binary", 100))

	if err := m.Save(runID, "image.png", content); err != nil {
		t.Fatalf("Save: %v", err)
	}

	plainPath := filepath.Join(dir, "runs", runID, "artifacts", "image.png")
	if _, err := os.Stat(plainPath); os.IsNotExist(err) {
		t.Error("binary artifact should not be compressed")
	}
}

func TestManager_List(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{BaseDir: dir})

	runID := "test-run-001"

	// Save multiple artifacts
	m.Save(runID, "prompt.md", []byte("# Prompt"))
	m.Save(runID, "result.json", []byte(`{"status": "succeeded"}`))
	m.Save(runID, "test-output.txt", []byte("Tests passed"))

	// List
	artifacts, err := m.List(runID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(artifacts) != 3 {
		t.Errorf("artifact count = %d, want 3", len(artifacts))
	}

	// Check sorted by name
	if artifacts[0].Name != "prompt.md" {
		t.Errorf("first artifact = %q, want 'prompt.md'", artifacts[0].Name)
	}
}

func TestManager_Has(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{BaseDir: dir})

	runID := "test-run-001"

	if m.Has(runID, "prompt.md") {
		t.Error("Has should return false for non-existent artifact")
	}

	m.Save(runID, "prompt.md", []byte("# Prompt"))

	if !m.Has(runID, "prompt.md") {
		t.Error("Has should return true after save")
	}
}

func TestManager_Delete(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{BaseDir: dir})

	runID := "test-run-001"
	m.Save(runID, "prompt.md", []byte("# Prompt"))

	if err := m.Delete(runID, "prompt.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Load(runID, "prompt.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestManager_LoadNotFound(t *testing.T) {
	m := NewManager(Config{BaseDir: t.TempDir()})

	_, err := m.Load("no-run", "missing.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestManager_TestOutputRoundtrip(t *testing.T) {
	m := NewManager(Config{BaseDir: t.TempDir()})
	runID := "test-run-001"

	output := &codetest.TestOutput{
		Passed:      false,
		TotalTests:  10,
		PassedTests: 8,
		FailedTests: 2,
		Failures:    []codetest.TestFailure{{Name: "TestParse"}},
	}

	if err := m.SaveTestOutput(runID, output); err != nil {
		t.Fatalf("SaveTestOutput: %v", err)
	}

	loaded, err := m.LoadTestOutput(runID)
	if err != nil {
		t.Fatalf("LoadTestOutput: %v", err)
	}
	if loaded.FailedTests != 2 || len(loaded.Failures) != 1 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestManager_ResultRoundtrip(t *testing.T) {
	m := NewManager(Config{BaseDir: t.TempDir()})
	runID := "test-run-001"

	result := &flow.Result{
		RunID:  runID,
		Graph:  "task-to-pr",
		Status: flow.Succeeded,
	}

	if err := m.SaveResult(runID, result); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	loaded, err := m.LoadResult(runID)
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if loaded.Status != flow.Succeeded || loaded.Graph != "task-to-pr" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestManager_Files(t *testing.T) {
	m := NewManager(Config{BaseDir: t.TempDir()})
	runID := "test-run-001"

	if err := m.SaveFile(runID, "pkg/generated.go", []byte("package pkg")); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	data, err := m.LoadFile(runID, "pkg/generated.go")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if string(data) != "package pkg" {
		t.Errorf("data = %q", data)
	}

	files, err := m.ListFiles(runID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join("pkg", "generated.go") {
		t.Errorf("files = %v", files)
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		filename string
		wantName string
	}{
		{"prompt.md", "markdown"},
		{"change.diff", "diff"},
		{"result.json", "json"},
		{"run.log", "text"},
		{"main.go", "code"},
		{"image.png", "binary"},
		{"noext", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := InferType(tt.filename); got.Name != tt.wantName {
				t.Errorf("InferType(%q) = %q, want %q", tt.filename, got.Name, tt.wantName)
			}
		})
	}
}
