package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Embedded defaults ship with the binary; projects override them by
// dropping a file of the same name under .orion/prompts or prompts/.
//
//go:embed prompts/*.txt
var defaults embed.FS

const ext = ".txt"

// Loader resolves prompt templates by name. Lookup order is project
// overrides first (.orion/prompts/, then prompts/), embedded defaults
// last. Parsed templates are cached; a Loader is safe for concurrent use
// by fan-out steps.
type Loader struct {
	dirs []string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewLoader creates a loader rooted at the project directory.
func NewLoader(projectDir string) *Loader {
	return &Loader{
		dirs: []string{
			filepath.Join(projectDir, ".orion", "prompts"),
			filepath.Join(projectDir, "prompts"),
		},
		cache: make(map[string]*template.Template),
	}
}

// Load returns the rendered prompt with no variables.
func (l *Loader) Load(name string) (string, error) {
	return l.LoadWithVars(name, nil)
}

// LoadWithVars renders the named template with the given variables.
func (l *Loader) LoadWithVars(name string, vars map[string]any) (string, error) {
	tmpl, err := l.template(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// Exists reports whether a template of that name can be resolved.
func (l *Loader) Exists(name string) bool {
	_, err := l.source(name)
	return err == nil
}

// List returns every resolvable template name, overrides and embedded
// defaults combined.
func (l *Loader) List() ([]string, error) {
	seen := make(map[string]bool)
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
				seen[strings.TrimSuffix(e.Name(), ext)] = true
			}
		}
	}
	if entries, err := defaults.ReadDir("prompts"); err == nil {
		for _, e := range entries {
			seen[strings.TrimSuffix(e.Name(), ext)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names, nil
}

func (l *Loader) template(name string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}
	src, err := l.source(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	l.cache[name] = tmpl
	return tmpl, nil
}

// source finds the raw template text, project overrides winning over
// embedded defaults.
func (l *Loader) source(name string) (string, error) {
	for _, dir := range l.dirs {
		if data, err := os.ReadFile(filepath.Join(dir, name+ext)); err == nil {
			return string(data), nil
		}
	}
	data, err := defaults.ReadFile("prompts/" + name + ext)
	if err != nil {
		return "", fmt.Errorf("prompt not found: %s", name)
	}
	return string(data), nil
}

// promptFuncs are the helpers available inside templates.
var promptFuncs = template.FuncMap{
	"join":     strings.Join,
	"split":    strings.Split,
	"trim":     strings.TrimSpace,
	"upper":    strings.ToUpper,
	"lower":    strings.ToLower,
	"title":    cases.Title(language.English).String,
	"contains": strings.Contains,
	"replace":  strings.ReplaceAll,
	"indent":   indent,
	"default":  fallback,
	"quote":    func(s string) string { return fmt.Sprintf("%q", s) },
}

// indent prefixes every non-empty line with n spaces.
func indent(n int, s string) string {
	if s == "" {
		return s
	}
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// fallback substitutes def when value is nil or an empty string.
func fallback(def, value any) any {
	if value == nil {
		return def
	}
	if s, ok := value.(string); ok && s == "" {
		return def
	}
	return value
}
