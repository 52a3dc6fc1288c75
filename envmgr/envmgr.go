package envmgr

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/randalmurphal/orion/gitops"
)

// Environment errors.
var (
	// ErrVenvFailed indicates virtualenv creation failed.
	ErrVenvFailed = errors.New("virtualenv creation failed")

	// ErrInstallFailed indicates dependency installation failed.
	ErrInstallFailed = errors.New("dependency installation failed")
)

// Kind identifies the kind of project in a repository.
type Kind string

const (
	KindPython  Kind = "python"
	KindGo      Kind = "go"
	KindNode    Kind = "node"
	KindUnknown Kind = "unknown"
)

// Detect determines the project kind from marker files.
func Detect(repoPath string) Kind {
	markers := []struct {
		file string
		kind Kind
	}{
		{"go.mod", KindGo},
		{"requirements.txt", KindPython},
		{"pyproject.toml", KindPython},
		{"setup.py", KindPython},
		{"package.json", KindNode},
	}

	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(repoPath, m.file)); err == nil {
			return m.kind
		}
	}
	return KindUnknown
}

// Manager performs environment operations for a repository.
type Manager struct {
	repoPath string
	runner   gitops.CommandRunner
	logger   *slog.Logger

	// commonDeps is installed when a Python project has no requirements.txt.
	// Installation is best-effort; failures are logged and skipped.
	commonDeps []string
}

// Option configures Manager.
type Option func(*Manager)

// WithRunner sets a custom command runner. Used by tests.
func WithRunner(runner gitops.CommandRunner) Option {
	return func(m *Manager) {
		m.runner = runner
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCommonDeps overrides the fallback dependency list for Python projects.
func WithCommonDeps(deps ...string) Option {
	return func(m *Manager) {
		m.commonDeps = deps
	}
}

// New creates an environment manager for the repository.
func New(repoPath string, opts ...Option) *Manager {
	m := &Manager{
		repoPath:   repoPath,
		runner:     gitops.NewExecRunner(),
		logger:     slog.Default(),
		commonDeps: []string{"torch", "transformers", "pillow", "numpy", "requests"},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RepoPath returns the repository path.
func (m *Manager) RepoPath() string {
	return m.repoPath
}

// Setup prepares the environment for the detected project kind.
// For Python it creates a virtualenv and installs dependencies;
// for Go it downloads modules; for Node it installs packages.
// Unknown projects need no setup.
func (m *Manager) Setup() error {
	kind := Detect(m.repoPath)
	m.logger.Info("setting up environment", "kind", string(kind), "path", m.repoPath)

	switch kind {
	case KindPython:
		venv, err := m.EnsureVenv()
		if err != nil {
			return err
		}
		return m.InstallDeps(VenvPython(venv))
	case KindGo:
		if _, err := m.runner.Run(m.repoPath, "go", "mod", "download"); err != nil {
			return fmt.Errorf("%w: %v", ErrInstallFailed, err)
		}
		return nil
	case KindNode:
		if _, err := m.runner.Run(m.repoPath, "npm", "install"); err != nil {
			return fmt.Errorf("%w: %v", ErrInstallFailed, err)
		}
		return nil
	default:
		return nil
	}
}

// EnsureVenv creates a .venv virtualenv in the repository if one does not
// exist. Returns the virtualenv path.
func (m *Manager) EnsureVenv() (string, error) {
	venvPath := filepath.Join(m.repoPath, ".venv")

	if _, err := os.Stat(venvPath); err == nil {
		m.logger.Debug("virtualenv already exists", "path", venvPath)
		return venvPath, nil
	}

	m.logger.Info("creating virtualenv", "path", venvPath)
	if _, err := m.runner.Run(m.repoPath, "python", "-m", "venv", venvPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrVenvFailed, err)
	}

	return venvPath, nil
}

// VenvPython returns the path to the Python executable in a virtualenv.
func VenvPython(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts", "python.exe")
	}
	return filepath.Join(venvPath, "bin", "python")
}

// InstallDeps installs Python dependencies into the virtualenv.
// Installs from requirements.txt when present, otherwise installs the
// common dependency list best-effort.
func (m *Manager) InstallDeps(venvPython string) error {
	if _, err := m.runner.Run(m.repoPath, venvPython, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("%w: upgrade pip: %v", ErrInstallFailed, err)
	}

	requirements := filepath.Join(m.repoPath, "requirements.txt")
	if _, err := os.Stat(requirements); err == nil {
		m.logger.Info("installing dependencies from requirements.txt")
		if _, err := m.runner.Run(m.repoPath, venvPython, "-m", "pip", "install", "-r", "requirements.txt"); err != nil {
			return fmt.Errorf("%w: %v", ErrInstallFailed, err)
		}
		return nil
	}

	m.logger.Info("no requirements.txt, installing common dependencies")
	for _, dep := range m.commonDeps {
		if _, err := m.runner.Run(m.repoPath, venvPython, "-m", "pip", "install", dep); err != nil {
			m.logger.Warn("failed to install dependency, skipping", "dep", dep, "error", err)
		}
	}

	return nil
}

// FreezeRequirements writes the installed package list to requirements.txt.
func (m *Manager) FreezeRequirements(venvPython string) error {
	output, err := m.runner.Run(m.repoPath, venvPython, "-m", "pip", "freeze")
	if err != nil {
		return fmt.Errorf("pip freeze: %w", err)
	}

	requirementsPath := filepath.Join(m.repoPath, "requirements.txt")
	if err := os.WriteFile(requirementsPath, []byte(output+"\n"), 0o644); err != nil {
		return fmt.Errorf("write requirements.txt: %w", err)
	}

	return nil
}
