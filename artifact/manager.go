package artifact

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/randalmurphal/orion/codetest"
	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/generate"
)

// ErrNotFound indicates the artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Config holds configuration for artifact management
type Config struct {
	BaseDir       string // Base directory for storage (default: ".orion")
	CompressAbove int64  // Compress artifacts larger than this (default: 10KB)
	RetentionDays int    // Days to keep artifacts (default: 30)
}

// Manager manages run artifacts
type Manager struct {
	baseDir       string
	compressAbove int64
	retentionDays int
}

// Info contains metadata about a stored artifact
type Info struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"createdAt"`
	Type       string    `json:"type"`
}

// Standard artifact names
const (
	NamePrompt     = "prompt.md"
	NameGeneration = "generation.json"
	NameDiff       = "implementation.diff"
	NameTestOutput = "test-output.json"
	NameLintOutput = "lint-output.json"
	NameResult     = "result.json"
)

// Type describes an artifact type
type Type struct {
	Name         string
	Extensions   []string
	Compressible bool
	Searchable   bool
}

// KnownTypes maps type names to their definitions
var KnownTypes = map[string]Type{
	"markdown": {"markdown", []string{".md"}, true, true},
	"diff":     {"diff", []string{".diff", ".patch"}, true, true},
	"json":     {"json", []string{".json"}, true, true},
	"text":     {"text", []string{".txt", ".log"}, true, true},
	"code":     {"code", []string{".go", ".py", ".js", ".ts", ".java", ".rb"}, true, true},
	"binary":   {"binary", []string{".png", ".jpg", ".jpeg", ".gif", ".pdf", ".zip", ".tar", ".gz"}, false, false},
}

// NewManager creates an artifact manager with the given config
func NewManager(cfg Config) *Manager {
	if cfg.BaseDir == "" {
		cfg.BaseDir = ".orion"
	}
	if cfg.CompressAbove == 0 {
		cfg.CompressAbove = 10 * 1024 // 10KB
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}

	return &Manager{
		baseDir:       cfg.BaseDir,
		compressAbove: cfg.CompressAbove,
		retentionDays: cfg.RetentionDays,
	}
}

// RunDir returns the directory for a run
func (m *Manager) RunDir(runID string) string {
	return filepath.Join(m.baseDir, "runs", runID)
}

// ArtifactDir returns the artifacts directory for a run
func (m *Manager) ArtifactDir(runID string) string {
	return filepath.Join(m.RunDir(runID), "artifacts")
}

// FilesDir returns the generated files directory
func (m *Manager) FilesDir(runID string) string {
	return filepath.Join(m.ArtifactDir(runID), "files")
}

// EnsureRunDir creates the run directory structure
func (m *Manager) EnsureRunDir(runID string) error {
	dirs := []string{
		m.RunDir(runID),
		m.ArtifactDir(runID),
		m.FilesDir(runID),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// Save saves an artifact with automatic compression
func (m *Manager) Save(runID, name string, data []byte) error {
	artifactType := InferType(name)
	artifactPath := filepath.Join(m.ArtifactDir(runID), name)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0755); err != nil {
		return err
	}

	// Compress if needed
	if m.shouldCompress(artifactType, int64(len(data))) {
		// Remove uncompressed version if it exists
		os.Remove(artifactPath)
		return m.saveCompressed(artifactPath+".gz", data)
	}

	// Remove compressed version if it exists
	os.Remove(artifactPath + ".gz")
	return os.WriteFile(artifactPath, data, 0644)
}

// Load loads an artifact (handles compression transparently)
func (m *Manager) Load(runID, name string) ([]byte, error) {
	artifactPath := filepath.Join(m.ArtifactDir(runID), name)

	// Try compressed first
	if data, err := m.loadCompressed(artifactPath + ".gz"); err == nil {
		return data, nil
	}

	// Try uncompressed
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Delete removes an artifact
func (m *Manager) Delete(runID, name string) error {
	artifactPath := filepath.Join(m.ArtifactDir(runID), name)

	// Try to remove both compressed and uncompressed
	os.Remove(artifactPath + ".gz")
	err := os.Remove(artifactPath)
	if err != nil && os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// List returns all artifacts for a run
func (m *Manager) List(runID string) ([]Info, error) {
	artifactDir := m.ArtifactDir(runID)
	entries, err := os.ReadDir(artifactDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var artifacts []Info

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		compressed := false

		// Handle .gz extension
		if strings.HasSuffix(name, ".gz") {
			name = strings.TrimSuffix(name, ".gz")
			compressed = true
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		artifactType := InferType(name)

		artifacts = append(artifacts, Info{
			Name:       name,
			Size:       info.Size(),
			Compressed: compressed,
			CreatedAt:  info.ModTime(),
			Type:       artifactType.Name,
		})
	}

	// Sort by name
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name < artifacts[j].Name
	})

	return artifacts, nil
}

// Has checks if an artifact exists
func (m *Manager) Has(runID, name string) bool {
	artifactPath := filepath.Join(m.ArtifactDir(runID), name)

	// Check both compressed and uncompressed
	if _, err := os.Stat(artifactPath + ".gz"); err == nil {
		return true
	}
	if _, err := os.Stat(artifactPath); err == nil {
		return true
	}
	return false
}

// GetInfo returns info about a specific artifact
func (m *Manager) GetInfo(runID, name string) (*Info, error) {
	artifactPath := filepath.Join(m.ArtifactDir(runID), name)

	// Try compressed first
	if info, err := os.Stat(artifactPath + ".gz"); err == nil {
		artifactType := InferType(name)
		return &Info{
			Name:       name,
			Size:       info.Size(),
			Compressed: true,
			CreatedAt:  info.ModTime(),
			Type:       artifactType.Name,
		}, nil
	}

	// Try uncompressed
	info, err := os.Stat(artifactPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	artifactType := InferType(name)
	return &Info{
		Name:       name,
		Size:       info.Size(),
		Compressed: false,
		CreatedAt:  info.ModTime(),
		Type:       artifactType.Name,
	}, nil
}

// SaveFile saves a generated file to the files subdirectory
func (m *Manager) SaveFile(runID, filename string, data []byte) error {
	if err := os.MkdirAll(m.FilesDir(runID), 0755); err != nil {
		return err
	}

	filePath := filepath.Join(m.FilesDir(runID), filename)

	// Ensure any nested directories exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

// LoadFile loads a generated file from the files subdirectory
func (m *Manager) LoadFile(runID, filename string) ([]byte, error) {
	filePath := filepath.Join(m.FilesDir(runID), filename)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// ListFiles returns all generated files for a run
func (m *Manager) ListFiles(runID string) ([]string, error) {
	filesDir := m.FilesDir(runID)
	var files []string

	err := filepath.Walk(filesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(filesDir, path)
		if err != nil {
			return err
		}
		files = append(files, relPath)
		return nil
	})

	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return files, nil
}

// BaseDir returns the base directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// =============================================================================
// Typed Save/Load Helpers
// =============================================================================

// SavePrompt saves the rendered prompt artifact
func (m *Manager) SavePrompt(runID string, prompt string) error {
	return m.Save(runID, NamePrompt, []byte(prompt))
}

// LoadPrompt loads the rendered prompt artifact
func (m *Manager) LoadPrompt(runID string) (string, error) {
	data, err := m.Load(runID, NamePrompt)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveGeneration saves a generation result artifact
func (m *Manager) SaveGeneration(runID string, result *generate.Result) error {
	return m.SaveJSON(runID, NameGeneration, result)
}

// LoadGeneration loads a generation result artifact
func (m *Manager) LoadGeneration(runID string) (*generate.Result, error) {
	var result generate.Result
	if err := m.LoadJSON(runID, NameGeneration, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveTestOutput saves test output artifact
func (m *Manager) SaveTestOutput(runID string, output *codetest.TestOutput) error {
	return m.SaveJSON(runID, NameTestOutput, output)
}

// LoadTestOutput loads test output artifact
func (m *Manager) LoadTestOutput(runID string) (*codetest.TestOutput, error) {
	var output codetest.TestOutput
	if err := m.LoadJSON(runID, NameTestOutput, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// SaveLintOutput saves lint output artifact
func (m *Manager) SaveLintOutput(runID string, output *codetest.LintOutput) error {
	return m.SaveJSON(runID, NameLintOutput, output)
}

// LoadLintOutput loads lint output artifact
func (m *Manager) LoadLintOutput(runID string) (*codetest.LintOutput, error) {
	var output codetest.LintOutput
	if err := m.LoadJSON(runID, NameLintOutput, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// SaveResult saves the terminal run result artifact
func (m *Manager) SaveResult(runID string, result *flow.Result) error {
	return m.SaveJSON(runID, NameResult, result)
}

// LoadResult loads the terminal run result artifact
func (m *Manager) LoadResult(runID string) (*flow.Result, error) {
	var result flow.Result
	if err := m.LoadJSON(runID, NameResult, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveDiff saves an implementation diff artifact
func (m *Manager) SaveDiff(runID string, diff string) error {
	return m.Save(runID, NameDiff, []byte(diff))
}

// LoadDiff loads an implementation diff artifact
func (m *Manager) LoadDiff(runID string) (string, error) {
	data, err := m.Load(runID, NameDiff)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveJSON saves arbitrary JSON data as an artifact
func (m *Manager) SaveJSON(runID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return m.Save(runID, name, data)
}

// LoadJSON loads and unmarshals a JSON artifact
func (m *Manager) LoadJSON(runID, name string, v any) error {
	data, err := m.Load(runID, name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// =============================================================================
// Internal
// =============================================================================

func (m *Manager) shouldCompress(at Type, size int64) bool {
	if !at.Compressible {
		return false
	}
	return size >= m.compressAbove
}

func (m *Manager) saveCompressed(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	_, err = gz.Write(data)
	return err
}

func (m *Manager) loadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// InferType infers the artifact type from filename
func InferType(filename string) Type {
	ext := strings.ToLower(filepath.Ext(filename))

	for _, at := range KnownTypes {
		for _, e := range at.Extensions {
			if e == ext {
				return at
			}
		}
	}

	// Default to text
	return Type{
		Name:         "unknown",
		Compressible: true,
		Searchable:   true,
	}
}
