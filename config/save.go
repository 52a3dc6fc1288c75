package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Saver writes configuration edits back to the global or local config
// file, preserving the other keys already there.
type Saver struct {
	globalPath string
	gitRoot    string
}

// NewSaver creates a Saver for the standard layout, matching the paths
// NewResolver reads from.
func NewSaver() Saver {
	var s Saver
	if home, err := os.UserHomeDir(); err == nil {
		s.globalPath = filepath.Join(home, ".config", globalDirName, globalFileName)
	}
	s.gitRoot = findGitRoot(".")
	return s
}

// NewSaverAt creates a Saver with explicit paths.
func NewSaverAt(globalPath, gitRoot string) Saver {
	return Saver{globalPath: globalPath, gitRoot: gitRoot}
}

// SaveGlobal sets a key in the global config file, creating the file
// and its directory when needed.
func (s Saver) SaveGlobal(key, value string) error {
	if s.globalPath == "" {
		return fmt.Errorf("global config path unavailable")
	}
	if err := validateKey(key); err != nil {
		return err
	}

	existing := loadFile(s.globalPath)
	existing[key] = yamlValue(value)

	if err := os.MkdirAll(filepath.Dir(s.globalPath), 0o700); err != nil {
		return err
	}
	return writeFile(s.globalPath, existing, 0o600)
}

// SaveLocal sets a key in .orion.yaml at the git root. The file is
// checked in and shared, so it stays world-readable.
func (s Saver) SaveLocal(key, value string) error {
	if s.gitRoot == "" {
		return fmt.Errorf("git root not found")
	}
	if err := validateKey(key); err != nil {
		return err
	}

	path := filepath.Join(s.gitRoot, localFileName)
	existing := loadFile(path)
	existing[key] = yamlValue(value)

	return writeFile(path, existing, 0o644)
}

// DeleteGlobal removes a key from the global config file. A missing
// file or key is not an error.
func (s Saver) DeleteGlobal(key string) error {
	if s.globalPath == "" {
		return fmt.Errorf("global config path unavailable")
	}

	data, err := os.ReadFile(s.globalPath)
	if err != nil {
		return nil
	}
	var existing map[string]any
	if err := yaml.Unmarshal(data, &existing); err != nil {
		return nil
	}
	if _, ok := existing[key]; !ok {
		return nil
	}

	delete(existing, key)
	return writeFile(s.globalPath, existing, 0o600)
}

func validateKey(key string) error {
	if validKeySet()[key] {
		return nil
	}
	return fmt.Errorf("unknown config key %q (valid keys: %s)",
		key, strings.Join(ValidKeys(), ", "))
}

func loadFile(path string) map[string]any {
	existing := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &existing)
	}
	return existing
}

func writeFile(path string, values map[string]any, perm os.FileMode) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// yamlValue converts the string form a caller passes into the YAML
// type the resolver will read back, so booleans round-trip as
// booleans.
func yamlValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
