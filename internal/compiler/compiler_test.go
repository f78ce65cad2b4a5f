package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/registry"
	"github.com/vk/strata/internal/runner"
	"github.com/vk/strata/internal/testutil"
	"github.com/vk/strata/internal/toolcall"
)

func setup(t *testing.T, project model.Project, fake *testutil.FakeCompiler) (*Compiler, model.Layout) {
	t.Helper()
	root := t.TempDir()
	layout := model.Layout{Root: filepath.Join(root, "out"), Cache: filepath.Join(root, "cache")}
	reg := registry.New()
	reg.Register(ToolName, "test", fake)
	return New(runner.New(reg, nil, 2), project, layout, "-Xlint"), layout
}

func join(paths ...string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}

func twoModules(t *testing.T) (model.Project, string) {
	t.Helper()
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{
		"a/main/java/module-info.java":    "module a {}",
		"b/main/java/module-info.java":    "module b { requires a; }",
		"b/main/java-11/b/Eleven.java":    "package b; class Eleven {}",
		"b/main/java-11/module-info.java": "module b {}",
	})
	a := model.NewModule("a", "").WithSources(model.Folder{Path: filepath.Join(src, "a/main/java")})
	b := model.NewModule("b", "").WithRequires("a").WithSources(
		model.Folder{Path: filepath.Join(src, "b/main/java")},
		model.Folder{Path: filepath.Join(src, "b/main/java-11"), Release: 11},
	)
	return model.NewProject("demo", "1.0").WithSpaces(model.NewSpace("main").WithModules(a, b)), src
}

func TestBaseCall(t *testing.T) {
	project := model.NewProject("demo", "1.0").WithSpaces(
		model.NewSpace("main").WithModules(
			model.NewModule("x", "").WithSources(model.Folder{Path: "src/x/main/java"}),
		),
		model.NewSpace("test").WithRequires("main").WithRelease(17).WithModules(
			model.NewModule("x", "").WithSources(model.Folder{Path: "src/x/test/java"}),
			model.NewModule("y", "").WithSources(model.Folder{Path: "src/y/test/java"}, model.Folder{Path: "src/y/test/extra"}),
		),
	)
	c, layout := setup(t, project, &testutil.FakeCompiler{})
	test, _ := project.Space("test")

	want := []string{
		"--module", "x,y",
		"--module-source-path", "x=src/x/test/java",
		"--module-source-path", "y=" + join("src/y/test/java", "src/y/test/extra"),
		"--module-path", join(layout.ArchivesDir("main"), layout.Cache),
		"--patch-module", "x=" + layout.Archive("main", "x"),
		"--release", "17",
		"-Xlint",
		"-d", layout.ClassesDir("test", 0),
	}
	assert.Equal(t, want, c.BaseCall(test).Args())

	main, _ := project.Space("main")
	assert.Empty(t, testutil.ArgValues(c.BaseCall(main).Args(), "--patch-module"))
}

func TestPatches_NearestSpaceWins(t *testing.T) {
	x := model.NewModule("x", "")
	project := model.NewProject("demo", "").WithSpaces(
		model.NewSpace("api").WithModules(x),
		model.NewSpace("main").WithRequires("api").WithModules(x),
		model.NewSpace("test").WithRequires("main").WithModules(x),
	)
	c, layout := setup(t, project, &testutil.FakeCompiler{})
	test, _ := project.Space("test")

	assert.Equal(t, map[string]string{"x": layout.Archive("main", "x")}, c.Patches(test))
	assert.Equal(t, []string{layout.ArchivesDir("main"), layout.ArchivesDir("api"), layout.Cache}, c.ModulePath(test))
}

func TestOverlayCalls(t *testing.T) {
	project, src := twoModules(t)
	c, layout := setup(t, project, &testutil.FakeCompiler{})
	main, _ := project.Space("main")
	b, _ := main.Module("b")

	calls, err := c.OverlayCalls(main, b)
	require.NoError(t, err)
	require.Len(t, calls, 1)

	want := []string{
		"--release", "11",
		"--module-path", layout.Cache,
		"--class-path", join(layout.ModuleClasses("main", 0, "b"), layout.ModuleClasses("main", 0, "a")),
		"-implicit:none",
		"-Xlint",
		"-d", layout.ModuleClasses("main", 11, "b"),
		filepath.Join(src, "b/main/java-11/b/Eleven.java"),
	}
	assert.Equal(t, want, calls[0].Args())

	a, _ := main.Module("a")
	calls, err = c.OverlayCalls(main, a)
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestCompile_PhaseOrdering(t *testing.T) {
	project, _ := twoModules(t)
	fake := &testutil.FakeCompiler{}
	c, layout := setup(t, project, fake)
	main, _ := project.Space("main")
	b, _ := main.Module("b")

	_, err := c.CompileBase(context.Background(), main)
	require.NoError(t, err)
	_, err = c.CompileOverlays(context.Background(), main, b)
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "a,b", testutil.ArgValue(calls[0].Args(), "--module"))
	assert.Equal(t, "11", testutil.ArgValue(calls[1].Args(), "--release"))
	assert.Contains(t, testutil.ArgValue(calls[1].Args(), "--class-path"), layout.ClassesDir("main", 0))

	assert.FileExists(t, filepath.Join(layout.ModuleClasses("main", 0, "b"), "module-info.class"))
	assert.FileExists(t, filepath.Join(layout.ModuleClasses("main", 11, "b"), "Eleven.class"))
}

func TestCompile_Failures(t *testing.T) {
	project, _ := twoModules(t)
	main, _ := project.Space("main")
	b, _ := main.Module("b")

	t.Run("base failure", func(t *testing.T) {
		fake := &testutil.FakeCompiler{Fail: func(toolcall.Call) bool { return true }}
		c, _ := setup(t, project, fake)

		res, err := c.CompileBase(context.Background(), main)
		var failure *toolcall.ToolFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, PhaseBase, failure.Phase)
		assert.Equal(t, "main", failure.Space)
		assert.Equal(t, 1, res.ExitCode)
		assert.Contains(t, err.Error(), "compilation failed")
	})

	t.Run("overlay failure names the module", func(t *testing.T) {
		fake := &testutil.FakeCompiler{Fail: func(call toolcall.Call) bool {
			return testutil.ArgValue(call.Args(), "--release") == "11"
		}}
		c, _ := setup(t, project, fake)

		_, err := c.CompileOverlays(context.Background(), main, b)
		var failure *toolcall.ToolFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, PhaseOverlay, failure.Phase)
		assert.Equal(t, "b", failure.Module)
	})

	t.Run("empty space is a no-op", func(t *testing.T) {
		fake := &testutil.FakeCompiler{}
		c, _ := setup(t, project, fake)
		res, err := c.CompileBase(context.Background(), model.NewSpace("empty"))
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Empty(t, fake.Calls())
	})
}

func TestCompile_RemovesStaleOutput(t *testing.T) {
	project, _ := twoModules(t)
	main, _ := project.Space("main")
	b, _ := main.Module("b")
	fake := &testutil.FakeCompiler{}
	c, layout := setup(t, project, fake)

	stale := map[string]string{"Gone.class": "old"}
	testutil.WriteFiles(t, layout.ModuleClasses("main", 0, "a"), stale)
	testutil.WriteFiles(t, layout.ModuleClasses("main", 11, "b"), stale)
	testutil.WriteFiles(t, layout.ModuleClasses("main", 17, "b"), stale)

	_, err := c.CompileBase(context.Background(), main)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(layout.ModuleClasses("main", 0, "a"), "Gone.class"))
	assert.NoDirExists(t, layout.ClassesDir("main", 17))

	testutil.WriteFiles(t, layout.ModuleClasses("main", 11, "b"), stale)
	_, err = c.CompileOverlays(context.Background(), main, b)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(layout.ModuleClasses("main", 11, "b"), "Gone.class"))
	assert.FileExists(t, filepath.Join(layout.ModuleClasses("main", 11, "b"), "Eleven.class"))

	testutil.WriteFiles(t, layout.ArchivesDir("main"), map[string]string{"a.jar": "old"})
	fake.Fail = func(toolcall.Call) bool { return true }
	_, err = c.CompileBase(context.Background(), main)
	require.Error(t, err)
	assert.NoFileExists(t, layout.Archive("main", "a"))
}
