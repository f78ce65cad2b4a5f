package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moduleB() DeclaredModule {
	return NewModule("b", "b/main/java/module-info.java").
		WithRequires("a").
		WithSources(
			Folder{Path: "b/main/java", Release: 0},
			Folder{Path: "b/main/java-11", Release: 11},
		).
		WithResources(Folder{Path: "b/main/resources-17", Release: 17})
}

func TestDeclaredModule_BuildersCopy(t *testing.T) {
	base := NewModule("a", "a/module-info.java").WithRequires("x")
	more := base.WithRequires("y")

	assert.Equal(t, []string{"x"}, base.Requires)
	assert.Equal(t, []string{"x", "y"}, more.Requires)
}

func TestDeclaredModule_Releases(t *testing.T) {
	m := moduleB()

	assert.Equal(t, []string{"b/main/java"}, m.SourcesFor(BaseRelease))
	assert.Equal(t, []int{11, 17}, m.OverlayReleases())
	assert.Equal(t, []int{11}, m.SourceReleases())
	assert.Equal(t, []string{"b/main/resources-17"}, m.ResourcesFor(17))
}

func TestDeclaredModule_Validate(t *testing.T) {
	require.NoError(t, moduleB().Validate(0))
	require.NoError(t, moduleB().Validate(9))

	err := moduleB().Validate(11)
	assert.ErrorContains(t, err, "not above the base release 11")

	err = NewModule("empty", "x").Validate(0)
	assert.ErrorContains(t, err, "no base source folder")

	assert.NoError(t, NewModule("agg", "x").WithAggregator(true).Validate(0))
}

func TestSpace_Validate(t *testing.T) {
	s := NewSpace("main").WithModules(moduleB(), moduleB())
	assert.ErrorContains(t, s.Validate(), `declares module "b" twice`)

	s = NewSpace("main").WithModules(moduleB()).WithLauncher("c/c.Main")
	assert.ErrorContains(t, s.Validate(), `unknown module "c"`)

	s = NewSpace("main").WithModules(moduleB()).WithLauncher("b/b.Main")
	require.NoError(t, s.Validate())
	module, class, ok := s.LauncherModule()
	assert.True(t, ok)
	assert.Equal(t, "b", module)
	assert.Equal(t, "b.Main", class)
}

func TestProject_RequiredNames(t *testing.T) {
	p := NewProject("demo", "1.0").
		WithSpaces(
			NewSpace("main").WithModules(moduleB()),
			NewSpace("test").WithModules(NewModule("t", "").WithRequires("org.junit.jupiter", "b")),
		).
		WithRequires("org.junit.platform.console")

	want := []string{"a", "b", "org.junit.jupiter", "org.junit.platform.console"}
	if diff := cmp.Diff(want, p.RequiredNames()); diff != "" {
		t.Errorf("RequiredNames() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]bool{"b": true, "t": true}, p.DeclaredNames())
}

func TestProject_RequiredSpaces(t *testing.T) {
	p := NewProject("demo", "").WithSpaces(
		NewSpace("api"),
		NewSpace("main").WithRequires("api"),
		NewSpace("test").WithRequires("main"),
	)

	var names []string
	for _, s := range p.RequiredSpaces("test") {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"main", "api"}, names)
	assert.Empty(t, p.RequiredSpaces("api"))
}

func TestProject_Validate(t *testing.T) {
	p := NewProject("demo", "").WithSpaces(NewSpace("test").WithRequires("main"))
	assert.ErrorContains(t, p.Validate(), `unknown space "main"`)

	p = NewProject("demo", "").WithSpaces(NewSpace("main"), NewSpace("main"))
	assert.ErrorContains(t, p.Validate(), `"main" declared twice`)
}

func TestLayout(t *testing.T) {
	l := Layout{Root: "out", Cache: "cache"}

	assert.Equal(t, filepath.Join("out", "main", "classes", "0"), l.ClassesDir("main", BaseRelease))
	assert.Equal(t, filepath.Join("out", "main", "classes", "11", "b"), l.ModuleClasses("main", 11, "b"))
	assert.Equal(t, filepath.Join("out", "test", "archives", "x.jar"), l.Archive("test", "x"))
	assert.Equal(t, filepath.Join("cache", "org.lwjgl.jar"), l.ExternalArchive("org.lwjgl"))
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	p := NewProject("demo", "1.0").WithSpaces(NewSpace("main").WithModules(moduleB()))
	p.Describe(NewDescriber(&buf))

	want := `project demo 1.0
  space main
    module b
      requires a
      sources b/main/java
      sources[11] b/main/java-11
      resources[17] b/main/resources-17
`
	assert.Equal(t, want, buf.String())
}
