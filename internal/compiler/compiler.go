// Package compiler builds and runs the compiler calls of a space.
//
// A space compiles in two phases. The base phase is one call covering every
// module of the space, so references between them are checked together.
// The overlay phase then compiles each release-specific source folder of a
// module on its own, against that module's base output.
package compiler

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/fsutil"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/runner"
	"github.com/vk/strata/internal/toolcall"
)

// ToolName is the compiler every call is addressed to.
const ToolName = "javac"

const (
	PhaseBase    = "base compile"
	PhaseOverlay = "overlay compile"
)

// Compiler creates compiler calls for one project and runs them.
type Compiler struct {
	runner  *runner.Runner
	project model.Project
	layout  model.Layout
	options []string
}

// New returns a compiler. Options are appended to every call.
func New(r *runner.Runner, project model.Project, layout model.Layout, options ...string) *Compiler {
	return &Compiler{runner: r, project: project, layout: layout, options: options}
}

// ModulePath lists the archive directories of every space the given one
// depends on, nearest first, followed by the external module cache.
func (c *Compiler) ModulePath(space model.Space) []string {
	var path []string
	for _, required := range c.project.RequiredSpaces(space.Name) {
		path = append(path, c.layout.ArchivesDir(required.Name))
	}
	return append(path, c.layout.Cache)
}

// Patches maps each module of space that a required space also declares to
// the archive of the nearest such space.
func (c *Compiler) Patches(space model.Space) map[string]string {
	patches := map[string]string{}
	for _, required := range c.project.RequiredSpaces(space.Name) {
		for _, m := range space.Modules {
			if _, done := patches[m.Name]; done {
				continue
			}
			if _, ok := required.Module(m.Name); ok {
				patches[m.Name] = c.layout.Archive(required.Name, m.Name)
			}
		}
	}
	return patches
}

// BaseCall is the single call compiling every module of space into the
// base classes directory.
func (c *Compiler) BaseCall(space model.Space) toolcall.Call {
	call := toolcall.New(ToolName, "--module", strings.Join(space.ModuleNames(), ","))
	call = toolcall.WithEach(call, space.Modules, func(call toolcall.Call, m model.DeclaredModule) toolcall.Call {
		return call.With("--module-source-path", m.Name+"="+joinPath(m.SourcesFor(model.BaseRelease)))
	})
	call = call.With("--module-path", joinPath(c.ModulePath(space)))

	patches := c.Patches(space)
	call = toolcall.WithEach(call, space.ModuleNames(), func(call toolcall.Call, name string) toolcall.Call {
		if archive, ok := patches[name]; ok {
			return call.With("--patch-module", name+"="+archive)
		}
		return call
	})
	call = call.WithIf(space.Release > 0, "--release", strconv.Itoa(space.Release))
	return call.With(c.options...).With("-d", c.layout.ClassesDir(space.Name, model.BaseRelease))
}

// OverlayCalls returns one call per release-specific source set of the
// module, ascending by release.
func (c *Compiler) OverlayCalls(space model.Space, module model.DeclaredModule) ([]toolcall.Call, error) {
	classPath := []string{c.layout.ModuleClasses(space.Name, model.BaseRelease, module.Name)}
	for _, other := range space.Modules {
		if other.Name != module.Name {
			classPath = append(classPath, c.layout.ModuleClasses(space.Name, model.BaseRelease, other.Name))
		}
	}

	var calls []toolcall.Call
	for _, release := range module.SourceReleases() {
		var files []string
		for _, dir := range module.SourcesFor(release) {
			found, err := fsutil.FindFilesByExtension(dir, ".java")
			if err != nil {
				return nil, fmt.Errorf("listing sources of %s: %w", module.Name, err)
			}
			for _, f := range found {
				if !strings.HasSuffix(f, "module-info.java") {
					files = append(files, f)
				}
			}
		}
		if len(files) == 0 {
			continue
		}
		sort.Strings(files)
		call := toolcall.New(ToolName, "--release", strconv.Itoa(release)).
			With("--module-path", joinPath(c.ModulePath(space))).
			With("--class-path", joinPath(classPath)).
			With("-implicit:none").
			With(c.options...).
			With("-d", c.layout.ModuleClasses(space.Name, release, module.Name)).
			With(files...)
		calls = append(calls, call)
	}
	return calls, nil
}

// CompileBase runs the base call of space. Class output of earlier runs is
// removed first, for every release. A non-zero exit is returned as a
// *toolcall.ToolFailure, and the space's archives of earlier runs are
// removed with it.
func (c *Compiler) CompileBase(ctx context.Context, space model.Space) (*toolcall.Result, error) {
	logger := ctxlog.FromContext(ctx)
	if err := os.RemoveAll(c.layout.ClassesRoot(space.Name)); err != nil {
		return nil, fmt.Errorf("removing stale classes: %w", err)
	}
	if len(space.Modules) == 0 {
		logger.Info("Space declares no modules, nothing to compile.")
		return nil, nil
	}
	for _, dir := range c.ModulePath(space) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	logger.Info("🔨 Compiling space.", "modules", len(space.Modules))
	res, err := c.runner.Run(ctx, c.BaseCall(space))
	if err == nil && !res.Ok() {
		err = &toolcall.ToolFailure{Phase: PhaseBase, Space: space.Name, Result: res}
	}
	if err != nil {
		if rmErr := os.RemoveAll(c.layout.ArchivesDir(space.Name)); rmErr != nil {
			logger.Warn("Could not remove stale archives.", "error", rmErr)
		}
		return res, err
	}
	return res, nil
}

// CompileOverlays runs the overlay calls of one module concurrently. It
// must only be called after CompileBase succeeded for the module's space.
func (c *Compiler) CompileOverlays(ctx context.Context, space model.Space, module model.DeclaredModule) ([]*toolcall.Result, error) {
	// Every source release gets a fresh, possibly empty, output directory.
	for _, release := range module.SourceReleases() {
		dir := c.layout.ModuleClasses(space.Name, release, module.Name)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("removing stale classes: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	calls, err := c.OverlayCalls(space, module)
	if err != nil || len(calls) == 0 {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Compiling release overlays.", "module", module.Name, "releases", module.SourceReleases())
	results, err := c.runner.RunParallel(ctx, calls)
	if err != nil {
		return results, err
	}
	for _, res := range results {
		if !res.Ok() {
			return results, &toolcall.ToolFailure{Phase: PhaseOverlay, Space: space.Name, Module: module.Name, Result: res}
		}
	}
	return results, nil
}

func joinPath(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}
