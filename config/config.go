package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Standard layout for orion configuration.
const (
	envPrefix      = "ORION_"
	globalDirName  = "orion"
	globalFileName = "config.yaml"
	localFileName  = ".orion.yaml"
)

// Resolver merges configuration from defaults, the global config file,
// the local config file in the git root, and ORION_* environment
// variables, in that order of increasing priority.
type Resolver struct {
	globalPath string
	localPath  string
	gitRoot    string
	errWriter  io.Writer

	// Warnings collects non-fatal issues hit during resolution, such
	// as unparseable files or unknown keys.
	Warnings []string
}

// NewResolver creates a resolver for the standard layout:
// ~/.config/orion/config.yaml globally and .orion.yaml in the
// enclosing git root.
func NewResolver() *Resolver {
	r := &Resolver{errWriter: os.Stderr}

	if root := findGitRoot("."); root != "" {
		r.gitRoot = root
		r.localPath = filepath.Join(root, localFileName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.globalPath = filepath.Join(home, ".config", globalDirName, globalFileName)
	}

	return r
}

// NewResolverAt creates a resolver reading explicit file paths, either
// of which may be empty. Warnings are collected but not printed.
func NewResolverAt(globalPath, localPath string) *Resolver {
	return &Resolver{
		globalPath: globalPath,
		localPath:  localPath,
		errWriter:  io.Discard,
	}
}

func (r *Resolver) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	fmt.Fprintf(r.errWriter, "Warning: %s\n", msg)
}

// GitRoot returns the git root the resolver found, if any.
func (r *Resolver) GitRoot() string { return r.gitRoot }

// GlobalPath returns the global config file path.
func (r *Resolver) GlobalPath() string { return r.globalPath }

// LocalPath returns the local config file path.
func (r *Resolver) LocalPath() string { return r.localPath }

// Resolved is the merged key/value view of all configuration sources.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// Get returns the value for a key, or "" when unset.
func (c *Resolved) Get(key string) string { return c.values[key] }

// Source reports which layer supplied the key's value.
func (c *Resolved) Source(key string) Source { return c.sources[key] }

// GetWithSource returns the value together with its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// All returns a copy of every resolved key/value pair.
func (c *Resolved) All() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func (c *Resolved) set(key, value string, src Source) {
	c.values[key] = value
	c.sources[key] = src
}

// Resolve merges all sources. Priority from lowest to highest:
// defaults, global file, local file, environment.
func (r *Resolver) Resolve() *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}

	for key, value := range Defaults() {
		cfg.set(key, value, SourceDefault)
	}
	r.mergeFile(cfg, r.globalPath, SourceGlobal)
	r.mergeFile(cfg, r.localPath, SourceLocal)
	r.mergeEnv(cfg)

	return cfg
}

// ResolveWithFlags resolves and then applies non-empty flag values on
// top, the highest-priority layer.
func (r *Resolver) ResolveWithFlags(flags map[string]string) *Resolved {
	cfg := r.Resolve()
	for key, value := range flags {
		if value != "" {
			cfg.set(key, value, SourceFlag)
		}
	}
	return cfg
}

func (r *Resolver) mergeFile(cfg *Resolved, path string, src Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// A missing config file is the common case.
		return
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	valid := validKeySet()
	for key, value := range parsed {
		if !valid[key] {
			r.warn(fmt.Sprintf("%s: unknown key %q", path, key))
			continue
		}
		if s := scalarString(value); s != "" {
			cfg.set(key, s, src)
		}
	}
}

func (r *Resolver) mergeEnv(cfg *Resolved) {
	for _, key := range ValidKeys() {
		envKey := envPrefix + strings.ToUpper(key)
		if value := os.Getenv(envKey); value != "" {
			cfg.set(key, value, SourceEnv)
		}
	}

	// NO_COLOR is honored regardless of the ORION_ prefix, per the
	// convention at no-color.org: presence alone disables color.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.set(KeyNoColor, "true", SourceEnv)
	}
}

func validKeySet() map[string]bool {
	set := make(map[string]bool)
	for _, k := range ValidKeys() {
		set[k] = true
	}
	return set
}

// scalarString renders a YAML scalar as the string form the typed
// Settings parsers expect. Non-scalar values are dropped.
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	}
	return ""
}

// findGitRoot walks up from startDir looking for a .git directory.
func findGitRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
