package model

import (
	"fmt"
	"sort"
)

// Project is the root of the model: a named, versioned list of spaces.
type Project struct {
	Name     string
	Version  string
	Spaces   []Space
	Requires []string
}

func NewProject(name, version string) Project {
	return Project{Name: name, Version: version}
}

func (p Project) WithSpaces(spaces ...Space) Project {
	p.Spaces = append(append([]Space(nil), p.Spaces...), spaces...)
	return p
}

// WithRequires adds module names that must be resolved even though no
// declared module requires them, such as a test launcher.
func (p Project) WithRequires(names ...string) Project {
	p.Requires = append(append([]string(nil), p.Requires...), names...)
	return p
}

// Space looks up a space by name.
func (p Project) Space(name string) (Space, bool) {
	for _, s := range p.Spaces {
		if s.Name == name {
			return s, true
		}
	}
	return Space{}, false
}

// DeclaredNames returns the set of module names declared in any space.
func (p Project) DeclaredNames() map[string]bool {
	names := map[string]bool{}
	for _, s := range p.Spaces {
		for _, m := range s.Modules {
			names[m.Name] = true
		}
	}
	return names
}

// RequiredNames returns, sorted, every module name required by a declared
// module or by the project itself.
func (p Project) RequiredNames() []string {
	set := map[string]bool{}
	for _, name := range p.Requires {
		set[name] = true
	}
	for _, s := range p.Spaces {
		for _, m := range s.Modules {
			for _, r := range m.Requires {
				set[r] = true
			}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiredSpaces returns the transitive closure of spaces the named space
// depends on, nearest first, each listed once.
func (p Project) RequiredSpaces(name string) []Space {
	var out []Space
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current, ok := p.Space(queue[0])
		queue = queue[1:]
		if !ok {
			continue
		}
		for _, req := range current.Requires {
			if seen[req] {
				continue
			}
			seen[req] = true
			if s, ok := p.Space(req); ok {
				out = append(out, s)
				queue = append(queue, req)
			}
		}
	}
	return out
}

// Validate checks space uniqueness, space references and each space's own
// invariants. Cycles between spaces are detected by the scheduler.
func (p Project) Validate() error {
	seen := map[string]bool{}
	for _, s := range p.Spaces {
		if seen[s.Name] {
			return fmt.Errorf("space %q declared twice", s.Name)
		}
		seen[s.Name] = true
	}
	for _, s := range p.Spaces {
		for _, req := range s.Requires {
			if !seen[req] {
				return fmt.Errorf("space %q requires unknown space %q", s.Name, req)
			}
		}
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
