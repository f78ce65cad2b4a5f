// Package scanner turns a source tree into declared modules.
//
// A module lives in a directory holding <set>/java/module-info.java, where
// <set> is the source set of a space ("main", "test", ...). Next to the base
// folder, java-<N> holds sources targeting release N, resources holds base
// resources and resources-<N> release-specific ones.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/descriptor"
	"github.com/vk/strata/internal/fsutil"
	"github.com/vk/strata/internal/model"
)

const (
	descriptorFile  = "module-info.java"
	sourcesFolder   = "java"
	resourcesFolder = "resources"
	mainFile        = "Main.java"
)

// Scanner reads module declarations below Root.
type Scanner struct {
	Root string
}

func New(root string) *Scanner {
	return &Scanner{Root: root}
}

// Modules returns every module declared in the given source set, ordered by
// directory path.
func (s *Scanner) Modules(ctx context.Context, sourceSet string) ([]model.DeclaredModule, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.FindFilesByExtension(s.Root, descriptorFile)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.Root, err)
	}

	var modules []model.DeclaredModule
	for _, file := range files {
		if filepath.Base(file) != descriptorFile || hidden(s.Root, file) {
			continue
		}
		base := filepath.Dir(file)
		setDir := filepath.Dir(base)
		if filepath.Base(base) != sourcesFolder || filepath.Base(setDir) != sourceSet {
			continue
		}
		m, err := s.module(file, setDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Found module.", "module", m.Name, "set", sourceSet, "descriptor", file)
		modules = append(modules, m)
	}
	return modules, nil
}

// Space fills the given space with the modules of its source set and
// validates the result. A launcher names the main class of its module
// unless the module already has one.
func (s *Scanner) Space(ctx context.Context, space model.Space, sourceSet string) (model.Space, error) {
	if sourceSet == "" {
		sourceSet = space.Name
	}
	modules, err := s.Modules(ctx, sourceSet)
	if err != nil {
		return model.Space{}, err
	}
	if module, class, ok := space.LauncherModule(); ok && class != "" {
		for i, m := range modules {
			if m.Name == module && m.MainClass == "" {
				modules[i] = m.WithMainClass(class)
			}
		}
	}
	space = space.WithModules(modules...)
	if err := space.Validate(); err != nil {
		return model.Space{}, err
	}
	for _, m := range space.Modules {
		if err := m.Validate(space.Release); err != nil {
			return model.Space{}, fmt.Errorf("space %q: %w", space.Name, err)
		}
	}
	return space, nil
}

func (s *Scanner) module(file, setDir string) (model.DeclaredModule, error) {
	d, err := descriptor.ParseFile(file)
	if err != nil {
		return model.DeclaredModule{}, err
	}
	base := filepath.Dir(file)
	m := model.NewModule(d.Name, file).
		WithRequires(d.RequiredNames()...).
		WithSources(model.Folder{Path: base, Release: model.BaseRelease})

	overlays, err := releaseFolders(setDir, sourcesFolder)
	if err != nil {
		return model.DeclaredModule{}, err
	}
	m = m.WithSources(overlays...)

	if dir := filepath.Join(setDir, resourcesFolder); fsutil.IsDir(dir) {
		m = m.WithResources(model.Folder{Path: dir, Release: model.BaseRelease})
	}
	resources, err := releaseFolders(setDir, resourcesFolder)
	if err != nil {
		return model.DeclaredModule{}, err
	}
	m = m.WithResources(resources...)

	sources, err := fsutil.FindFilesByExtension(base, ".java")
	if err != nil {
		return model.DeclaredModule{}, err
	}
	if len(sources) == 1 {
		m = m.WithAggregator(true)
	}
	if fsutil.IsFile(filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(d.Name, ".", "/")), mainFile)) {
		m = m.WithMainClass(d.Name + ".Main")
	}
	return m, nil
}

// releaseFolders returns <prefix>-<N> folders of dir, ascending by N.
func releaseFolders(dir, prefix string) ([]model.Folder, error) {
	names, err := fsutil.SubdirsWithPrefix(dir, prefix+"-")
	if err != nil {
		return nil, err
	}
	var folders []model.Folder
	for _, name := range names {
		release, err := strconv.Atoi(strings.TrimPrefix(name, prefix+"-"))
		if err != nil || release <= 0 {
			return nil, fmt.Errorf("folder %s: %q is not a release number", filepath.Join(dir, name), strings.TrimPrefix(name, prefix+"-"))
		}
		folders = append(folders, model.Folder{Path: filepath.Join(dir, name), Release: release})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Release < folders[j].Release })
	return folders, nil
}

func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
