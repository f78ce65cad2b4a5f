package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/fetch"
	"github.com/vk/strata/internal/locator"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/modscan"
	"github.com/vk/strata/internal/resolver"
	"github.com/vk/strata/internal/scanner"
)

// project scans the source tree into the model of every configured space.
func (a *App) project(ctx context.Context) (model.Project, error) {
	logger := ctxlog.FromContext(ctx)
	s := scanner.New(a.model.Project.SourceRoot)
	project := model.NewProject(a.model.Project.Name, a.model.Project.Version).
		WithRequires(a.model.Project.Requires...)

	for _, sc := range a.model.Spaces {
		space := model.NewSpace(sc.Name).
			WithRequires(sc.Requires...).
			WithRelease(sc.Release).
			WithLauncher(sc.Launcher).
			WithTests(sc.Tests)
		scanned, err := s.Space(ctx, space, sc.SourceSet)
		if err != nil {
			return model.Project{}, fmt.Errorf("scanning space %q: %w", sc.Name, err)
		}
		logger.Debug("Space scanned.", "space", sc.Name, "modules", scanned.ModuleNames())
		project = project.WithSpaces(scanned)
	}
	if err := project.Validate(); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

// locators builds the locator chain: explicit locations first, then
// coordinates, the shared registry, name-based guesses and release probes.
func (a *App) locators() *locator.Composite {
	m := a.model
	repository := m.Project.Repository

	var direct []model.ExternalModuleLocation
	for _, e := range m.Externals {
		direct = append(direct, model.ExternalModuleLocation{Module: e.Module, URI: e.URI, Version: e.Version})
	}
	coordinates := map[string]locator.Coordinate{}
	for _, c := range m.Coordinates {
		coordinates[c.Module] = locator.Coordinate{Group: c.Group, Artifact: c.Artifact, Version: c.Version, Classifier: c.Classifier}
	}

	chain := []locator.Locator{
		locator.NewDirect("config", direct...),
		locator.NewCoordinates(repository, coordinates),
	}
	if m.Registry != nil {
		cacheDir := m.Registry.CacheDir
		if cacheDir == "" {
			cacheDir = locator.UserCacheDir()
		}
		chain = append(chain, locator.NewRegistry(m.Registry.URL, cacheDir, repository))
	}
	chain = append(chain, locator.NewGuesser(repository, m.Versions))
	if m.ReleaseProbe != nil {
		chain = append(chain, locator.NewReleaseProbe(m.ReleaseProbe.APIURL, http.DefaultClient, m.ReleaseProbe.FallbackTags))
	}
	return locator.NewComposite(chain...)
}

// resolver prepares dependency resolution for project.
func (a *App) resolver(project model.Project) *resolver.Resolver {
	state := resolver.State{
		Declared: project.DeclaredNames(),
		Required: project.RequiredNames(),
		System:   resolver.SystemModules(a.model.Project.SystemModules...),
	}
	cache := modscan.Directory{Path: filepath.Clean(a.layout.Cache)}
	return resolver.New(state, a.locators(), fetch.New(nil), cache, a.layout,
		resolver.WithSink(a.sink),
		resolver.WithWorkers(a.config.WorkerCount),
	)
}
