package model

import (
	"fmt"
	"slices"
	"strings"
)

// Space is a named group of declared modules that compile together.
type Space struct {
	Name     string
	Modules  []DeclaredModule
	Requires []string
	Release  int
	Launcher string
	Tests    bool
}

// NewSpace creates an empty space.
func NewSpace(name string) Space {
	return Space{Name: name}
}

func (s Space) WithModules(modules ...DeclaredModule) Space {
	s.Modules = append(slices.Clone(s.Modules), modules...)
	return s
}

func (s Space) WithRequires(spaces ...string) Space {
	s.Requires = append(slices.Clone(s.Requires), spaces...)
	return s
}

func (s Space) WithRelease(release int) Space {
	s.Release = release
	return s
}

func (s Space) WithLauncher(launcher string) Space {
	s.Launcher = launcher
	return s
}

func (s Space) WithTests(tests bool) Space {
	s.Tests = tests
	return s
}

// Module looks up a declared module by name.
func (s Space) Module(name string) (DeclaredModule, bool) {
	for _, m := range s.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return DeclaredModule{}, false
}

// ModuleNames returns the declared module names in declaration order.
func (s Space) ModuleNames() []string {
	names := make([]string, len(s.Modules))
	for i, m := range s.Modules {
		names[i] = m.Name
	}
	return names
}

// LauncherModule splits the launcher into module and optional main class.
func (s Space) LauncherModule() (module, class string, ok bool) {
	if s.Launcher == "" {
		return "", "", false
	}
	module, class, _ = strings.Cut(s.Launcher, "/")
	return module, class, true
}

// Validate checks module-level invariants and name uniqueness within the space.
func (s Space) Validate() error {
	seen := map[string]bool{}
	for _, m := range s.Modules {
		if seen[m.Name] {
			return fmt.Errorf("space %q declares module %q twice", s.Name, m.Name)
		}
		seen[m.Name] = true
		if err := m.Validate(s.Release); err != nil {
			return fmt.Errorf("space %q: %w", s.Name, err)
		}
	}
	if module, _, ok := s.LauncherModule(); ok && !seen[module] {
		return fmt.Errorf("space %q launcher refers to unknown module %q", s.Name, module)
	}
	return nil
}
