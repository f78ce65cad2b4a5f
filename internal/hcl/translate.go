package hcl

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/vk/strata/internal/config"
)

// translateProject converts the HCL-specific project schema into the agnostic model.
func translateProject(p *projectBlock) config.Project {
	return config.Project{
		Name:           p.Name,
		Version:        p.Version,
		SourceRoot:     p.SourceRoot,
		Repository:     p.Repository,
		SystemModules:  p.SystemModules,
		Requires:       p.Requires,
		CompileOptions: p.CompileOptions,
	}
}

func translateSpace(s *spaceBlock) *config.Space {
	return &config.Space{
		Name:      s.Name,
		Requires:  s.Requires,
		Release:   s.Release,
		Launcher:  s.Launcher,
		Tests:     s.Tests,
		SourceSet: s.SourceSet,
	}
}

func translateCoordinate(c *coordinateBlock) *config.Coordinate {
	return &config.Coordinate{
		Module:     c.Module,
		Group:      c.Group,
		Artifact:   c.Artifact,
		Version:    c.Version,
		Classifier: c.Classifier,
	}
}

// translateTool splits the options string the way a shell would.
func translateTool(t *toolBlock) (*config.Tool, error) {
	options, err := shlex.Split(t.Options)
	if err != nil {
		return nil, fmt.Errorf("tool %q: options: %w", t.Name, err)
	}
	return &config.Tool{Name: t.Name, Path: t.Path, Options: options}, nil
}
