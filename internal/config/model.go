package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// Model is the whole build configuration.
type Model struct {
	// BaseDir is the directory relative paths are resolved against.
	BaseDir string

	Project      Project
	Spaces       []*Space
	Externals    []*External
	Coordinates  []*Coordinate
	Versions     map[string]string
	Registry     *Registry
	ReleaseProbe *ReleaseProbe
	Tools        []*Tool
}

// Project holds project-wide settings.
type Project struct {
	Name           string
	Version        string
	SourceRoot     string
	Repository     string
	SystemModules  []string
	Requires       []string
	CompileOptions []string
}

// Space is the format-agnostic representation of a `space` block.
type Space struct {
	Name      string
	Requires  []string
	Release   int
	Launcher  string
	Tests     bool
	SourceSet string
}

// External pins a module to a URI.
type External struct {
	Module  string
	URI     string
	Version string
}

// Coordinate pins a module to repository coordinates.
type Coordinate struct {
	Module     string
	Group      string
	Artifact   string
	Version    string
	Classifier string
}

// Registry points at a remote module table.
type Registry struct {
	URL      string
	CacheDir string
}

// ReleaseProbe configures lookups of released assets.
type ReleaseProbe struct {
	APIURL       string
	FallbackTags []string
}

// Tool overrides or adds a tool provider.
type Tool struct {
	Name    string
	Path    string
	Options []string
}

// DefaultSpaces are used when the configuration declares none.
func DefaultSpaces() []*Space {
	return []*Space{
		{Name: "main", SourceSet: "main"},
		{Name: "test", SourceSet: "test", Requires: []string{"main"}, Tests: true},
	}
}

// ApplyDefaults fills in what the configuration left out.
func (m *Model) ApplyDefaults() {
	if m.BaseDir == "" {
		m.BaseDir = "."
	}
	if m.Project.SourceRoot == "" {
		m.Project.SourceRoot = m.BaseDir
	} else if !filepath.IsAbs(m.Project.SourceRoot) {
		m.Project.SourceRoot = filepath.Join(m.BaseDir, m.Project.SourceRoot)
	}
	if m.Project.Name == "" {
		if abs, err := filepath.Abs(m.Project.SourceRoot); err == nil {
			m.Project.Name = filepath.Base(abs)
		}
	}
	if len(m.Spaces) == 0 {
		m.Spaces = DefaultSpaces()
	}
	for _, s := range m.Spaces {
		if s.SourceSet == "" {
			s.SourceSet = s.Name
		}
	}
}

// Validate reports configuration mistakes that do not need the source tree.
func (m *Model) Validate() error {
	seen := map[string]bool{}
	for _, s := range m.Spaces {
		if s.Name == "" {
			return errors.New("space without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("space %q declared twice", s.Name)
		}
		seen[s.Name] = true
		if s.Release < 0 {
			return fmt.Errorf("space %q: release must not be negative", s.Name)
		}
	}
	for _, e := range m.Externals {
		if e.URI == "" {
			return fmt.Errorf("external %q: uri is required", e.Module)
		}
	}
	for _, c := range m.Coordinates {
		if c.Group == "" || c.Artifact == "" || c.Version == "" {
			return fmt.Errorf("coordinate %q: group, artifact and version are required", c.Module)
		}
	}
	tools := map[string]bool{}
	for _, t := range m.Tools {
		if tools[t.Name] {
			return fmt.Errorf("tool %q declared twice", t.Name)
		}
		tools[t.Name] = true
	}
	return nil
}

// VersionKeys returns the keys of Versions, sorted.
func (m *Model) VersionKeys() []string {
	keys := make([]string, 0, len(m.Versions))
	for k := range m.Versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
