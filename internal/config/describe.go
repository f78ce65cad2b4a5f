package config

import (
	"strings"

	"github.com/vk/strata/internal/model"
)

// Describe writes the configuration as indented lines.
func (m *Model) Describe(d *model.Describer) {
	d.Line("configuration %s", m.BaseDir)
	d.Nest(func() {
		d.Line("source root %s", m.Project.SourceRoot)
		if m.Project.Repository != "" {
			d.Line("repository %s", m.Project.Repository)
		}
		if len(m.Project.CompileOptions) > 0 {
			d.Line("compile options %s", strings.Join(m.Project.CompileOptions, " "))
		}
		for _, e := range m.Externals {
			d.Line("external %s", model.ExternalModuleLocation{Module: e.Module, URI: e.URI, Version: e.Version})
		}
		for _, c := range m.Coordinates {
			d.Line("coordinate %s %s:%s:%s", c.Module, c.Group, c.Artifact, c.Version)
		}
		for _, k := range m.VersionKeys() {
			d.Line("version %s %s", k, m.Versions[k])
		}
		if m.Registry != nil {
			d.Line("registry %s", m.Registry.URL)
		}
		if m.ReleaseProbe != nil {
			d.Line("release probe %s", m.ReleaseProbe.APIURL)
		}
		for _, t := range m.Tools {
			d.Line("tool %s %s %s", t.Name, t.Path, strings.Join(t.Options, " "))
		}
	})
}
