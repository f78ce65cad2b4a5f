// Package archive assembles the compiled output of a module into its
// multi-release archive.
package archive

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/fsutil"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/runner"
	"github.com/vk/strata/internal/toolcall"
)

// ToolName is the archiver every call is addressed to.
const ToolName = "jar"

const Phase = "archive"

// Assembler creates archiver calls for one project and runs them.
type Assembler struct {
	runner  *runner.Runner
	project model.Project
	layout  model.Layout
}

func New(r *runner.Runner, project model.Project, layout model.Layout) *Assembler {
	return &Assembler{runner: r, project: project, layout: layout}
}

// Call describes the archive of module written to file. Entries are added
// in this order: base classes and resources at the root, classes of the
// same module compiled in required spaces, then one section per release in
// ascending order. A release section is present when the release has
// recompiled classes, resources, or both.
func (a *Assembler) Call(space model.Space, module model.DeclaredModule, file string) toolcall.Call {
	call := toolcall.New(ToolName, "--create", "--file", file).
		WithOption("--main-class", module.MainClass).
		WithOption("--module-version", a.project.Version).
		With("-C", a.layout.ModuleClasses(space.Name, model.BaseRelease, module.Name), ".")
	call = toolcall.WithEach(call, module.ResourcesFor(model.BaseRelease), addDir)

	for _, required := range a.project.RequiredSpaces(space.Name) {
		if _, ok := required.Module(module.Name); ok {
			call = call.With("-C", a.layout.ModuleClasses(required.Name, model.BaseRelease, module.Name), ".")
		}
	}

	compiled := module.SourceReleases()
	for _, release := range module.OverlayReleases() {
		call = call.With("--release", strconv.Itoa(release)).
			WithIf(slices.Contains(compiled, release), "-C", a.layout.ModuleClasses(space.Name, release, module.Name), ".")
		call = toolcall.WithEach(call, module.ResourcesFor(release), addDir)
	}
	return call
}

func addDir(call toolcall.Call, dir string) toolcall.Call {
	return call.With("-C", dir, ".")
}

// Assemble writes the archive of module to its final path. The archiver
// writes to a temporary name first, and the file only appears at the final
// path once the archiver succeeded.
func (a *Assembler) Assemble(ctx context.Context, space model.Space, module model.DeclaredModule) (string, error) {
	final := a.layout.Archive(space.Name, module.Name)
	if err := os.MkdirAll(a.layout.ArchivesDir(space.Name), 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}
	tmp := fsutil.TempPath(final)
	defer os.Remove(tmp)

	ctxlog.FromContext(ctx).Debug("Assembling archive.", "module", module.Name, "releases", module.OverlayReleases())
	res, err := a.runner.Run(ctx, a.Call(space, module, tmp))
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", &toolcall.ToolFailure{Phase: Phase, Space: space.Name, Module: module.Name, Result: res}
	}
	if err := fsutil.Publish(tmp, final); err != nil {
		return "", err
	}
	return final, nil
}
