// Package modscan inspects module archives on disk and reports which
// modules are present and what they require.
package modscan

import (
	"slices"
	"sort"
)

// Snapshot is an immutable view of the modules found in one scan.
type Snapshot struct {
	requires map[string][]string
}

// NewSnapshot copies modules (name to required names) into a snapshot.
func NewSnapshot(modules map[string][]string) Snapshot {
	s := Snapshot{requires: make(map[string][]string, len(modules))}
	for name, reqs := range modules {
		s.requires[name] = slices.Clone(reqs)
	}
	return s
}

// Has reports whether the module is present.
func (s Snapshot) Has(name string) bool {
	_, ok := s.requires[name]
	return ok
}

// Len returns the number of modules present.
func (s Snapshot) Len() int {
	return len(s.requires)
}

// Names returns the present module names, sorted.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.requires))
	for name := range s.requires {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Requires returns what the named module requires.
func (s Snapshot) Requires(name string) []string {
	return slices.Clone(s.requires[name])
}

// AllRequires returns the union of every present module's requirements,
// sorted.
func (s Snapshot) AllRequires() []string {
	set := map[string]bool{}
	for _, reqs := range s.requires {
		for _, r := range reqs {
			set[r] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
