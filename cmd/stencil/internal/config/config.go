// Package config resolves the optional stencil.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root.
const FileName = "stencil.yaml"

// DefaultTemplates is used when stencil.yaml lists no template bundles.
var DefaultTemplates = []string{"templates/*.yaml"}

// Config represents the optional stencil.yaml configuration.
type Config struct {
	Namespace string   `yaml:"namespace,omitempty"`
	Templates []string `yaml:"templates,omitempty"`
	Pages     []string `yaml:"pages,omitempty"`
	Verbose   bool     `yaml:"verbose,omitempty"`
}

// Resolved contains resolved configuration values. Template and page
// paths are absolute and sorted.
type Resolved struct {
	Root       string
	ModulePath string
	Namespace  string
	Templates  []string
	Pages      []string
	Verbose    bool
}

// LoadOptional reads stencil.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads stencil.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	namespace := strings.TrimSpace(cfg.Namespace)
	if namespace == "" {
		namespace = defaultNamespace(modulePath, dir)
	}
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	patterns := cfg.Templates
	if len(patterns) == 0 {
		patterns = DefaultTemplates
	}
	templates, err := expand(dir, patterns)
	if err != nil {
		return nil, err
	}
	pages, err := expand(dir, cfg.Pages)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		Namespace:  namespace,
		Templates:  templates,
		Pages:      pages,
		Verbose:    cfg.Verbose,
	}, nil
}

// Watched returns the files a change to which invalidates the resolved
// configuration.
func (r *Resolved) Watched() []string {
	out := []string{filepath.Join(r.Root, FileName)}
	out = append(out, r.Templates...)
	return append(out, r.Pages...)
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(dir)
}

// FindProjectRootFrom walks up from dir to find go.mod.
func FindProjectRootFrom(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// expand resolves glob patterns relative to dir. A pattern without glob
// characters must name an existing file.
func expand(dir string, patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(p, "*?[") {
			return nil, fmt.Errorf("%s does not exist", p)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func defaultNamespace(modulePath, dir string) string {
	base := filepath.Base(dir)
	modName, _, ok := module.SplitPathVersion(modulePath)
	if ok {
		parts := strings.Split(modName, "/")
		if len(parts) > 0 {
			base = parts[len(parts)-1]
		}
	}
	return sanitizeSegment(base)
}

func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)

	var out []rune
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		case r == '-' || r == '.':
			out = append(out, '_')
		default:
			// Skip other invalid characters
		}
	}

	if len(out) == 0 {
		return "app"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = append([]rune{'_'}, out...)
	}
	return string(out)
}

func validateNamespace(ns string) error {
	for _, segment := range strings.Split(ns, ".") {
		if segment == "" {
			return fmt.Errorf("namespace contains an empty segment (%q)", ns)
		}
		if segment[0] >= '0' && segment[0] <= '9' {
			return fmt.Errorf("namespace segments cannot start with a digit (%q)", ns)
		}
		for _, r := range segment {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return fmt.Errorf("namespace contains invalid character %q in %q", r, ns)
			}
		}
	}
	return nil
}
