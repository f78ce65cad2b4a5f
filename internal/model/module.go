package model

import (
	"fmt"
	"slices"
	"sort"
)

// BaseRelease is the release key of the folders every module compiles first.
const BaseRelease = 0

// Folder is a directory of sources or resources targeting a release.
type Folder struct {
	Path    string
	Release int
}

// DeclaredModule is a module whose sources live inside the project.
type DeclaredModule struct {
	Name       string
	Descriptor string
	Requires   []string
	Sources    []Folder
	Resources  []Folder
	MainClass  string
	Aggregator bool
}

// NewModule creates a module with the given name and descriptor path.
func NewModule(name, descriptor string) DeclaredModule {
	return DeclaredModule{Name: name, Descriptor: descriptor}
}

func (m DeclaredModule) WithRequires(names ...string) DeclaredModule {
	m.Requires = append(slices.Clone(m.Requires), names...)
	return m
}

func (m DeclaredModule) WithSources(folders ...Folder) DeclaredModule {
	m.Sources = append(slices.Clone(m.Sources), folders...)
	return m
}

func (m DeclaredModule) WithResources(folders ...Folder) DeclaredModule {
	m.Resources = append(slices.Clone(m.Resources), folders...)
	return m
}

func (m DeclaredModule) WithMainClass(class string) DeclaredModule {
	m.MainClass = class
	return m
}

func (m DeclaredModule) WithAggregator(aggregator bool) DeclaredModule {
	m.Aggregator = aggregator
	return m
}

// SourcesFor returns the source folder paths targeting the given release.
func (m DeclaredModule) SourcesFor(release int) []string {
	return pathsFor(m.Sources, release)
}

// ResourcesFor returns the resource folder paths targeting the given release.
func (m DeclaredModule) ResourcesFor(release int) []string {
	return pathsFor(m.Resources, release)
}

// OverlayReleases returns, ascending, every release above the base that has
// sources or resources.
func (m DeclaredModule) OverlayReleases() []int {
	seen := map[int]bool{}
	for _, f := range append(slices.Clone(m.Sources), m.Resources...) {
		if f.Release != BaseRelease {
			seen[f.Release] = true
		}
	}
	releases := make([]int, 0, len(seen))
	for r := range seen {
		releases = append(releases, r)
	}
	sort.Ints(releases)
	return releases
}

// SourceReleases returns, ascending, every overlay release that has sources.
func (m DeclaredModule) SourceReleases() []int {
	var releases []int
	for _, r := range m.OverlayReleases() {
		if len(m.SourcesFor(r)) > 0 {
			releases = append(releases, r)
		}
	}
	return releases
}

// Validate checks the structural invariants of the module. minRelease is
// the lowest release the owning space targets, or zero when unspecified.
func (m DeclaredModule) Validate(minRelease int) error {
	if m.Name == "" {
		return fmt.Errorf("module declared in %q has no name", m.Descriptor)
	}
	if len(m.SourcesFor(BaseRelease)) == 0 && !m.Aggregator {
		return fmt.Errorf("module %q has no base source folder", m.Name)
	}
	for _, r := range m.OverlayReleases() {
		if r < 0 {
			return fmt.Errorf("module %q has a folder with negative release %d", m.Name, r)
		}
		if minRelease > 0 && r <= minRelease {
			return fmt.Errorf("module %q has a release %d folder not above the base release %d", m.Name, r, minRelease)
		}
	}
	return nil
}

func pathsFor(folders []Folder, release int) []string {
	var paths []string
	for _, f := range folders {
		if f.Release == release {
			paths = append(paths, f.Path)
		}
	}
	return paths
}
