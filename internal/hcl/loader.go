package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/strata/internal/config"
	"github.com/vk/strata/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Env is exposed to expressions as the `env` object. Nil means the
	// process environment.
	Env map[string]string
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found at the given paths and merges them into
// one model. A directory contributes the .hcl files directly inside it. The
// first path decides the base directory for relative paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{Versions: map[string]string{}}
	if len(paths) > 0 {
		model.BaseDir = baseDir(paths[0])
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	evalCtx := l.evalContext()
	seenProject := false

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Projects {
			if seenProject {
				return nil, fmt.Errorf("%s: project %q: only one project block is allowed", file, p.Name)
			}
			seenProject = true
			model.Project = translateProject(p)
		}
		for _, s := range root.Spaces {
			model.Spaces = append(model.Spaces, translateSpace(s))
		}
		for _, e := range root.Externals {
			model.Externals = append(model.Externals, &config.External{Module: e.Module, URI: e.URI, Version: e.Version})
		}
		for _, c := range root.Coordinates {
			model.Coordinates = append(model.Coordinates, translateCoordinate(c))
		}
		for _, r := range root.Registries {
			model.Registry = &config.Registry{URL: r.URL, CacheDir: r.CacheDir}
		}
		for _, p := range root.ReleaseProbe {
			model.ReleaseProbe = &config.ReleaseProbe{APIURL: p.APIURL, FallbackTags: p.FallbackTags}
		}
		for _, t := range root.Tools {
			tool, err := translateTool(t)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Tools = append(model.Tools, tool)
		}
		versions, err := decodeStringMap(root.Versions, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: versions: %w", file, err)
		}
		for k, v := range versions {
			model.Versions[k] = v
		}
	}

	model.ApplyDefaults()
	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "files", len(hclFiles), "spaces", len(model.Spaces), "externals", len(model.Externals), "tools", len(model.Tools))
	return model, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	env := l.Env
	if env == nil {
		env = map[string]string{}
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && hclsyntax.ValidIdentifier(k) {
				env[k] = v
			}
		}
	}
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func baseDir(path string) string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

// findAllHCLFiles returns, per path and sorted within a directory, the .hcl
// files to load.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".hcl" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			add(filepath.Join(path, name))
		}
	}
	return allFiles, nil
}
